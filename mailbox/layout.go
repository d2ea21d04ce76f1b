package mailbox

// Field describes one member of the event table.
type Field struct {
	Name   string
	Offset uint32
	Size   uint32
}

// Layout returns the members of the event table in address order.
func Layout() []Field {
	fields := []Field{{Name: "Version", Offset: OffsetVersion, Size: 4}}

	for d := Device(0); d < NumDevices; d++ {
		fields = append(fields, Field{
			Name:   "Event[" + d.String() + "]",
			Offset: OffsetEvent + 4*uint32(d),
			Size:   4,
		})
	}

	for d := Device(0); d < NumDevices; d++ {
		fields = append(fields, Field{
			Name:   "CpuIdleFlag[" + d.String() + "]",
			Offset: OffsetCPUIdleFlag + 4*uint32(d),
			Size:   4,
		})
	}

	fields = append(fields, Field{Name: "Reserved", Offset: 0x24, Size: 4})

	for d := Device(0); d < NumDevices; d++ {
		fields = append(fields, Field{
			Name:   "ResumeAddress[" + d.String() + "]",
			Offset: OffsetResumeAddress + 8*uint32(d),
			Size:   8,
		})
	}

	return append(fields,
		Field{Name: "ProcDataAddress", Offset: OffsetProcDataAddress, Size: 4},
		Field{Name: "ProcDataLength", Offset: OffsetProcDataLength, Size: 2},
	)
}
