package vox

import "fmt"

// WriteScene encodes a Scene into a .vox file using a fixed scene-graph
// layout (spec §4.4): a root transform (node 0) wrapping
// a root group (node 1), one shape node per model ([2, 2+numModels)), and
// one transform node per instance wrapping each shape
// ([2+numModels, 2+numModels+numInstances)).
func WriteScene(s *Scene) ([]byte, error) {
	for i := range s.Models {
		m := &s.Models[i]
		if m.SizeX > 126 || m.SizeY > 126 || m.SizeZ > 126 {
			return nil, fmt.Errorf("vox: model %d dimensions %dx%dx%d exceed the 126-per-axis limit", i, m.SizeX, m.SizeY, m.SizeZ)
		}
	}
	for i := range s.Instances {
		if _, err := PackRotation(s.Instances[i].Transform); err != nil {
			return nil, fmt.Errorf("vox: instance %d: %w", i, err)
		}
	}

	var w chunkWriter
	w.writeString(magicVox)
	w.writeU32(versionCurrent)

	mainHeaderOff := w.offset()
	w.writeChunkHeader("MAIN", 0, 0)
	childrenStart := w.offset()

	for i := range s.Models {
		writeModelChunks(&w, &s.Models[i])
	}

	writeSceneGraph(&w, s)
	writeRGBA(&w, &s.Palette)
	for id := range s.Layers {
		writeLAYR(&w, s, int32(id))
	}

	childrenSize := w.offset() - childrenStart
	w.patchU32At(mainHeaderOff+8, uint32(childrenSize))

	// Route the final buffer through the configurable allocator (spec
	// §4.7) so an embedder's override governs the bytes actually handed
	// back to the caller, not just scratch space used while encoding.
	encoded := w.buf.Bytes()
	out := allocBytes(len(encoded))
	copy(out, encoded)
	return out, nil
}

func writeModelChunks(w *chunkWriter, m *Model) {
	w.writeChunk("SIZE", func(cw *chunkWriter) {
		cw.writeU32(uint32(m.SizeX))
		cw.writeU32(uint32(m.SizeY))
		cw.writeU32(uint32(m.SizeZ))
	})
	w.writeChunk("XYZI", func(cw *chunkWriter) {
		n := 0
		for _, v := range m.Voxels {
			if v != 0 {
				n++
			}
		}
		cw.writeU32(uint32(n))
		for z := 0; z < m.SizeZ; z++ {
			for y := 0; y < m.SizeY; y++ {
				for x := 0; x < m.SizeX; x++ {
					v := m.Voxels[x+y*m.SizeX+z*m.SizeX*m.SizeY]
					if v == 0 {
						continue
					}
					cw.writeU8(uint8(x))
					cw.writeU8(uint8(y))
					cw.writeU8(uint8(z))
					cw.writeU8(v)
				}
			}
		}
	})
}

func writeRGBA(w *chunkWriter, p *Palette) {
	onDisk := rotatePaletteOut(*p)
	w.writeChunk("RGBA", func(cw *chunkWriter) {
		for i := 0; i < 256; i++ {
			c := onDisk[i]
			cw.writeU8(c.R)
			cw.writeU8(c.G)
			cw.writeU8(c.B)
			cw.writeU8(c.A)
		}
	})
}

func writeLAYR(w *chunkWriter, s *Scene, id int32) {
	l := s.Layers[id]
	w.writeChunk("LAYR", func(cw *chunkWriter) {
		cw.writeI32(id)
		var dw dictWriter
		if name := s.Name(l.Name); name != "" {
			dw.add("_name", name)
		}
		dw.addBool("_hidden", l.Hidden)
		cw.writeDict(&dw)
		cw.writeI32(-1)
	})
}

// writeSceneGraph lays out the fixed node-id scheme and emits the nTRN /
// nGRP / nSHP chunks accordingly.
func writeSceneGraph(w *chunkWriter, s *Scene) {
	numModels := len(s.Models)
	numInstances := len(s.Instances)
	shapeBase := int32(2)
	instTransformBase := shapeBase + int32(numModels)

	// root transform -> root group
	w.writeChunk("nTRN", func(cw *chunkWriter) {
		cw.writeI32(0)
		cw.writeDict(&dictWriter{})
		cw.writeI32(1) // child: root group
		cw.writeI32(-1)
		cw.writeI32(0) // layer
		cw.writeU32(1) // one frame
		cw.writeDict(&dictWriter{})
	})

	w.writeChunk("nGRP", func(cw *chunkWriter) {
		cw.writeI32(1)
		cw.writeDict(&dictWriter{})
		cw.writeU32(uint32(numInstances))
		for i := 0; i < numInstances; i++ {
			cw.writeI32(instTransformBase + int32(i))
		}
	})

	for i := 0; i < numModels; i++ {
		modelID := int32(i)
		shapeID := shapeBase + modelID
		w.writeChunk("nSHP", func(cw *chunkWriter) {
			cw.writeI32(shapeID)
			cw.writeDict(&dictWriter{})
			cw.writeU32(1)
			cw.writeI32(modelID)
			cw.writeDict(&dictWriter{})
		})
	}

	for i, inst := range s.Instances {
		instID := instTransformBase + int32(i)
		w.writeChunk("nTRN", func(cw *chunkWriter) {
			cw.writeI32(instID)
			var dw dictWriter
			if name := s.Name(inst.Name); name != "" {
				dw.add("_name", name)
			}
			dw.addBool("_hidden", inst.Hidden)
			cw.writeDict(&dw)
			cw.writeI32(shapeBase + int32(inst.ModelIndex))
			cw.writeI32(-1)
			cw.writeI32(int32(inst.LayerIndex))
			cw.writeU32(1)

			var frame dictWriter
			rot, err := PackRotation(inst.Transform)
			if err == nil && rot != identityRotationByte {
				frame.add("_r", fmt.Sprintf("%d", rot))
			}
			t := inst.Transform.Translation()
			if t[0] != 0 || t[1] != 0 || t[2] != 0 {
				frame.add("_t", fmt.Sprintf("%d %d %d", t[0], t[1], t[2]))
			}
			cw.writeDict(&frame)
		})
	}
}
