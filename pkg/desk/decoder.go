package desk

import "github.com/golang/glog"

// FrameDecoder groups bytes from the desk into status frames.
//
// Bytes are grouped into consecutive, non-overlapping windows of
// StatusFrameSize. Without Resync, a lost or inserted byte leaves the
// decoder misaligned until the upstream link restarts.
type FrameDecoder struct {
	Scale Scale
	Sink  HeightSink
	// Resync realigns the window on the next sync pair when a completed
	// window doesn't start with one.
	Resync bool

	frame [StatusFrameSize]byte
	n     int
}

// Feed appends a byte received from the desk. When a window completes
// with a valid in-range frame and the height differs from the last one,
// st is updated and the height is published.
func (d *FrameDecoder) Feed(st *State, b byte) {
	d.frame[d.n] = b
	if d.n++; d.n < StatusFrameSize {
		return
	}
	d.n = 0

	code, ok := ParseStatusFrame(d.frame)
	if !ok {
		if glog.V(3) {
			glog.Infof("drop frame % X", d.frame[:])
		}
		if d.Resync {
			d.realign()
		}
		return
	}
	height, ok := d.scale().Height(code)
	if !ok {
		glog.V(3).Infof("drop height code 0x%02X out of range", code)
		return
	}
	if st.heightKnown && st.height == height {
		return
	}
	st.height, st.heightKnown = height, true
	glog.V(2).Infof("desk height %.1f in (code=0x%02X)", height, code)
	if d.Sink != nil {
		d.Sink.PublishHeight(height)
	}
}

// Reset discards a partially received frame.
func (d *FrameDecoder) Reset() {
	d.n = 0
}

// realign keeps the tail of the dropped window starting from the first
// sync pair (or a trailing sync byte) as the beginning of the next one.
func (d *FrameDecoder) realign() {
	if d.frame[0] == statusSync && d.frame[1] == statusSync {
		// aligned, the frame itself is corrupted.
		return
	}
	for i := 1; i < StatusFrameSize; i++ {
		if d.frame[i] != statusSync {
			continue
		}
		if i+1 < StatusFrameSize && d.frame[i+1] != statusSync {
			continue
		}
		d.n = copy(d.frame[:], d.frame[i:])
		glog.V(3).Infof("resync, keep %d bytes", d.n)
		return
	}
}

func (d *FrameDecoder) scale() Scale {
	if d.Scale.Step == 0 {
		return DefaultScale
	}
	return d.Scale
}
