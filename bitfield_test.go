package loadctl_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/acredsfan/solar-control"
)

var _ = Describe("Bitfield", func() {
	const control uint16 = 0x0120
	const status uint16 = 0x0121

	nonReads := func(rwc *MockRwc) []string {
		var w []string
		for _, c := range rwc.Calls {
			if c != "READ" {
				w = append(w, c)
			}
		}
		return w
	}

	It("skips the write when the bit is already set", func() {
		rwc := &MockRwc{
			Writes: []WriteScript{{8, nil}},
			Reads:  []ReadScript{{rxRead(1, 0b0000_0000_0000_0001), nil}},
		}
		b := &Bitfield{Master: newMaster(rwc), Control: control, Status: control, Bit: 0}
		s, ok := b.Set(true)
		Expect(ok).To(BeTrue())
		Expect(s).To(Equal(On))
		Expect(nonReads(rwc)).To(Equal([]string{
			"WRITE [01 03 01 20 00 01 84 3C]",
		}))
	})

	It("skips the write when the bit is already clear", func() {
		rwc := &MockRwc{
			Writes: []WriteScript{{8, nil}},
			Reads:  []ReadScript{{rxRead(1, 0xFFFE), nil}},
		}
		b := &Bitfield{Master: newMaster(rwc), Control: control, Status: control, Bit: 0}
		s, ok := b.Set(false)
		Expect(ok).To(BeTrue())
		Expect(s).To(Equal(Off))
		Expect(rwc.Calls).To(HaveLen(2))
	})

	It("clears one bit and keeps the rest", func() {
		rwc := &MockRwc{
			Writes: []WriteScript{{8, nil}, {8, nil}},
			Reads: []ReadScript{
				{rxRead(1, 0x0010), nil},
				{rxEcho(1, control, 0x0000), nil},
			},
		}
		b := &Bitfield{Master: newMaster(rwc), Control: control, Status: control, Bit: 4}
		s, ok := b.Set(false)
		Expect(ok).To(BeTrue())
		Expect(s).To(Equal(Off))
		Expect(nonReads(rwc)).To(Equal([]string{
			"WRITE [01 03 01 20 00 01 84 3C]",
			"WRITE [01 06 01 20 00 00 89 FC]",
		}))
	})

	It("sets one bit and keeps the rest", func() {
		rwc := &MockRwc{
			Writes: []WriteScript{{8, nil}, {8, nil}},
			Reads: []ReadScript{
				{rxRead(1, 0x0020), nil},
				{rxEcho(1, control, 0x0030), nil},
			},
		}
		b := &Bitfield{Master: newMaster(rwc), Control: control, Status: control, Bit: 4}
		s, ok := b.Set(true)
		Expect(ok).To(BeTrue())
		Expect(s).To(Equal(On))
		Expect(nonReads(rwc)).To(ContainElement("WRITE [01 06 01 20 00 30 89 E8]"))
	})

	It("handles the top bit", func() {
		rwc := &MockRwc{
			Writes: []WriteScript{{8, nil}, {8, nil}},
			Reads: []ReadScript{
				{rxRead(1, 0x0000), nil},
				{rxEcho(1, control, 0x8000), nil},
			},
		}
		b := &Bitfield{Master: newMaster(rwc), Control: control, Status: control, Bit: 15}
		s, ok := b.Set(true)
		Expect(ok).To(BeTrue())
		Expect(s).To(Equal(On))
		Expect(nonReads(rwc)).To(ContainElement("WRITE [01 06 01 20 80 00 E8 3C]"))
	})

	Context("distinct status register", func() {
		It("reads back the status register", func() {
			rwc := &MockRwc{
				Writes: []WriteScript{{8, nil}, {8, nil}, {8, nil}},
				Reads: []ReadScript{
					{rxRead(1, 0x0000), nil},
					{rxEcho(1, control, 0x0001), nil},
					{rxRead(1, 0x0000), nil},
				},
			}
			b := &Bitfield{Master: newMaster(rwc), Control: control, Status: status, Bit: 0}
			s, ok := b.Set(true)
			Expect(ok).To(BeTrue())
			Expect(s).To(Equal(Off))
			Expect(nonReads(rwc)).To(Equal([]string{
				"WRITE [01 03 01 21 00 01 D5 FC]",
				"WRITE [01 06 01 20 00 01 48 3C]",
				"WRITE [01 03 01 21 00 01 D5 FC]",
			}))
		})

		It("still succeeds when the readback fails", func() {
			rwc := &MockRwc{
				Writes: []WriteScript{{8, nil}, {8, nil}, {8, nil}},
				Reads: []ReadScript{
					{rxRead(1, 0x0000), nil},
					{rxEcho(1, control, 0x0001), nil},
					{[]byte{1, 3}, nil},
				},
			}
			b := &Bitfield{Master: newMaster(rwc), Control: control, Status: status, Bit: 0}
			s, ok := b.Set(true)
			Expect(ok).To(BeTrue())
			Expect(s).To(Equal(Unknown))
		})
	})

	Context("failures", func() {
		It("aborts when the word can't be read", func() {
			rwc := &MockRwc{
				Writes: []WriteScript{{8, nil}},
				Reads:  []ReadScript{{[]byte{1, 0x83, 2, 0xC0, 0xF1}, nil}},
			}
			b := &Bitfield{Master: newMaster(rwc), Control: control, Status: control, Bit: 0}
			_, ok := b.Set(true)
			Expect(ok).To(BeFalse())
			Expect(nonReads(rwc)).To(Equal([]string{
				"WRITE [01 03 01 20 00 01 84 3C]",
				"CLOSE",
			}))
		})

		It("fails when the write is not echoed", func() {
			rwc := &MockRwc{
				Writes: []WriteScript{{8, nil}, {8, nil}},
				Reads: []ReadScript{
					{rxRead(1, 0x0010), nil},
					{rxEcho(1, control, 0x0010), nil},
				},
			}
			b := &Bitfield{Master: newMaster(rwc), Control: control, Status: control, Bit: 4}
			_, ok := b.Set(false)
			Expect(ok).To(BeFalse())
		})
	})

	It("reads the bit", func() {
		rwc := &MockRwc{
			Writes: []WriteScript{{8, nil}},
			Reads:  []ReadScript{{rxRead(1, 0x0100), nil}},
		}
		b := &Bitfield{Master: newMaster(rwc), Control: control, Status: status, Bit: 8}
		s, ok := b.Read()
		Expect(ok).To(BeTrue())
		Expect(s).To(Equal(On))
	})
})

var _ = Describe("Direct", func() {
	const control uint16 = 0x0120

	It("writes the on value", func() {
		rwc := &MockRwc{
			Writes: []WriteScript{{8, nil}},
			Reads:  []ReadScript{{rxEcho(1, control, 1), nil}},
		}
		d := &Direct{Master: newMaster(rwc), Control: control, Status: control, OnValue: 1}
		s, ok := d.Set(true)
		Expect(ok).To(BeTrue())
		Expect(s).To(Equal(On))
		Expect(rwc.Calls).To(Equal([]string{
			"WRITE [01 06 01 20 00 01 48 3C]",
			"READ",
		}))
	})

	It("reads back when asked to", func() {
		rwc := &MockRwc{
			Writes: []WriteScript{{8, nil}, {8, nil}},
			Reads: []ReadScript{
				{rxEcho(1, control, 0), nil},
				{rxRead(1, 0), nil},
			},
		}
		d := &Direct{
			Master: newMaster(rwc), Control: control, Status: control,
			Readback: true, OnValue: 1,
		}
		s, ok := d.Set(false)
		Expect(ok).To(BeTrue())
		Expect(s).To(Equal(Off))
		Expect(rwc.Calls).To(HaveLen(4))
	})

	DescribeTable("Read",
		func(v uint16, s State) {
			rwc := &MockRwc{
				Writes: []WriteScript{{8, nil}},
				Reads:  []ReadScript{{rxRead(1, v), nil}},
			}
			d := &Direct{Master: newMaster(rwc), Control: control, Status: control, OnValue: 4, OffValue: 2}
			got, ok := d.Read()
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(s))
		},
		Entry("on", uint16(4), On),
		Entry("off", uint16(2), Off),
		Entry("other", uint16(3), Unknown),
	)

	It("fails on a bad echo", func() {
		rwc := &MockRwc{
			Writes: []WriteScript{{8, nil}},
			Reads:  []ReadScript{{rxEcho(1, control, 0), nil}},
		}
		d := &Direct{Master: newMaster(rwc), Control: control, Status: control, OnValue: 1}
		_, ok := d.Set(true)
		Expect(ok).To(BeFalse())
	})
})
