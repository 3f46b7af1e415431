package wire

import (
	"sync/atomic"
	"unsafe"
)

// AudioMagic identifies an audio region ("JAUD" little-endian).
const AudioMagic uint32 = 0x4455414A

// AudioVersion is the current audio header layout version.
const AudioVersion uint32 = 2

// Sample formats.
const (
	AudioFormatS16LE uint32 = 1
	AudioFormatF32LE uint32 = 2
)

// AudioHeaderSize is the fixed size of AudioHeader, in bytes.
const AudioHeaderSize = 64

const (
	audioOffMagic      = 0
	audioOffVersion    = 4
	audioOffSampleRate = 8
	audioOffChannels   = 12
	audioOffFormat     = 16
	audioOffRingFrames = 20
	audioOffWriteIdx   = 24
	audioOffReadIdx    = 28
	audioOffEnabled    = 32
	audioOffMuted      = 36
	audioOffVolumeL    = 40
	audioOffVolumeR    = 44
	// 16 bytes padding to AudioHeaderSize
)

// AudioSettings configures a new audio region at allocation time.
type AudioSettings struct {
	SampleRate uint32
	Channels   uint32 // 1 or 2
	Format     uint32 // AudioFormatS16LE or AudioFormatF32LE
	RingFrames uint32 // power of two, e.g. 8192
}

// SampleBytes returns the byte width of one sample for the given format.
func SampleBytes(format uint32) uint32 {
	switch format {
	case AudioFormatF32LE:
		return 4
	default: // S16LE
		return 2
	}
}

// FrameBytes returns the byte width of one interleaved frame (all channels).
func (s AudioSettings) FrameBytes() uint32 {
	return SampleBytes(s.Format) * s.Channels
}

// AudioRegionSize returns the total region size for the given settings.
func AudioRegionSize(s AudioSettings) int {
	return AudioHeaderSize + int(s.RingFrames)*int(s.FrameBytes())
}

// AudioHeader is a view over the 64-byte audio header at the start of a
// mapped audio region.
type AudioHeader struct {
	buf []byte
}

// NewAudioHeader wraps the header embedded at the start of buf.
func NewAudioHeader(buf []byte) AudioHeader {
	return AudioHeader{buf: buf}
}

func (h AudioHeader) u32(off int) *uint32 {
	return (*uint32)(unsafe.Pointer(&h.buf[off]))
}

// Magic returns the magic field.
func (h AudioHeader) Magic() uint32 { return atomic.LoadUint32(h.u32(audioOffMagic)) }

// Version returns the version field.
func (h AudioHeader) Version() uint32 { return atomic.LoadUint32(h.u32(audioOffVersion)) }

// Settings loads the immutable-after-init stream settings.
func (h AudioHeader) Settings() AudioSettings {
	return AudioSettings{
		SampleRate: atomic.LoadUint32(h.u32(audioOffSampleRate)),
		Channels:   atomic.LoadUint32(h.u32(audioOffChannels)),
		Format:     atomic.LoadUint32(h.u32(audioOffFormat)),
		RingFrames: atomic.LoadUint32(h.u32(audioOffRingFrames)),
	}
}

// Init writes the header fields for a freshly allocated region. Only called
// once per region, before it is shared with a consumer.
func (h AudioHeader) Init(s AudioSettings) {
	atomic.StoreUint32(h.u32(audioOffMagic), AudioMagic)
	atomic.StoreUint32(h.u32(audioOffVersion), AudioVersion)
	atomic.StoreUint32(h.u32(audioOffSampleRate), s.SampleRate)
	atomic.StoreUint32(h.u32(audioOffChannels), s.Channels)
	atomic.StoreUint32(h.u32(audioOffFormat), s.Format)
	atomic.StoreUint32(h.u32(audioOffRingFrames), s.RingFrames)
	atomic.StoreUint32(h.u32(audioOffWriteIdx), 0)
	atomic.StoreUint32(h.u32(audioOffReadIdx), 0)
	atomic.StoreUint32(h.u32(audioOffEnabled), 0)
	atomic.StoreUint32(h.u32(audioOffMuted), 0)
	atomic.StoreUint32(h.u32(audioOffVolumeL), 255)
	atomic.StoreUint32(h.u32(audioOffVolumeR), 255)
}

// WriteIdx loads write_idx (consumer-side read; producer owns this field and
// may read it back plainly, but a cooperating consumer must acquire it).
func (h AudioHeader) WriteIdx() uint32 { return atomic.LoadUint32(h.u32(audioOffWriteIdx)) }

// StoreWriteIdx publishes write_idx with release semantics (producer-side).
func (h AudioHeader) StoreWriteIdx(v uint32) { atomic.StoreUint32(h.u32(audioOffWriteIdx), v) }

// ReadIdx loads read_idx with acquire semantics (producer-side read).
func (h AudioHeader) ReadIdx() uint32 { return atomic.LoadUint32(h.u32(audioOffReadIdx)) }

// StoreReadIdx publishes read_idx (consumer-side, after draining frames).
func (h AudioHeader) StoreReadIdx(v uint32) { atomic.StoreUint32(h.u32(audioOffReadIdx), v) }

// Enabled loads the consumer-owned enable flag with acquire semantics. The
// producer only ever reads this field.
func (h AudioHeader) Enabled() bool { return atomic.LoadUint32(h.u32(audioOffEnabled)) != 0 }

// SetEnabled is called by the consumer (or a cooperating test consumer) to
// publish the enable flag. The producer never calls this.
func (h AudioHeader) SetEnabled(v bool) {
	var u uint32
	if v {
		u = 1
	}
	atomic.StoreUint32(h.u32(audioOffEnabled), u)
}

// Muted, VolumeLeft and VolumeRight are producer-owned; the consumer only
// reads them.
func (h AudioHeader) Muted() bool { return atomic.LoadUint32(h.u32(audioOffMuted)) != 0 }

func (h AudioHeader) Volume() (left, right uint32) {
	return atomic.LoadUint32(h.u32(audioOffVolumeL)), atomic.LoadUint32(h.u32(audioOffVolumeR))
}

// SetVolume publishes muted/volume with release semantics (producer-side).
func (h AudioHeader) SetVolume(left, right uint32, muted bool) {
	var m uint32
	if muted {
		m = 1
	}
	atomic.StoreUint32(h.u32(audioOffVolumeL), left)
	atomic.StoreUint32(h.u32(audioOffVolumeR), right)
	atomic.StoreUint32(h.u32(audioOffMuted), m)
}

// Ring returns the PCM ring bytes following the header.
func (h AudioHeader) Ring(s AudioSettings) []byte {
	return h.buf[AudioHeaderSize : AudioHeaderSize+int(s.RingFrames)*int(s.FrameBytes())]
}
