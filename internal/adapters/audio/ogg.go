package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

var (
	errInvalidOggMagic   = errors.New("ogg: invalid capture pattern")
	errInvalidOggVersion = errors.New("ogg: unsupported version")
	errNotOpus           = errors.New("ogg: stream is not opus")
)

type oggPageHeader struct {
	HeaderType   uint8
	GranulePos   int64
	SerialNumber uint32
	SequenceNum  uint32
	SegmentTable []uint8
}

func parseOggPageHeader(r io.Reader) (*oggPageHeader, error) {
	// cabecera fija de 27 bytes
	var buf [27]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	if string(buf[0:4]) != "OggS" {
		return nil, errInvalidOggMagic
	}
	if buf[4] != 0 {
		return nil, errInvalidOggVersion
	}

	hdr := &oggPageHeader{
		HeaderType:   buf[5],
		GranulePos:   int64(binary.LittleEndian.Uint64(buf[6:14])),
		SerialNumber: binary.LittleEndian.Uint32(buf[14:18]),
		SequenceNum:  binary.LittleEndian.Uint32(buf[18:22]),
		// el CRC (22:26) no se valida: ffmpeg escribe por pipe local
	}
	if n := buf[26]; n > 0 {
		hdr.SegmentTable = make([]uint8, n)
		if _, err := io.ReadFull(r, hdr.SegmentTable); err != nil {
			return nil, err
		}
	}
	return hdr, nil
}

// opusReader saca paquetes opus de un stream ogg. Los dos primeros paquetes
// (OpusHead y OpusTags) se consumen y no se devuelven.
type opusReader struct {
	r       io.Reader
	pending [][]byte
	partial []byte
	headers int
}

func newOpusReader(r io.Reader) *opusReader { return &opusReader{r: r} }

// Next devuelve el próximo paquete de audio. io.EOF al terminar el stream.
func (o *opusReader) Next() ([]byte, error) {
	for {
		for len(o.pending) > 0 {
			p := o.pending[0]
			o.pending = o.pending[1:]
			if o.headers < 2 {
				if o.headers == 0 && !bytes.HasPrefix(p, []byte("OpusHead")) {
					return nil, errNotOpus
				}
				o.headers++
				continue
			}
			return p, nil
		}
		if err := o.readPage(); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, io.EOF
			}
			return nil, err
		}
	}
}

// readPage arma paquetes con el lacing: un segmento < 255 cierra el paquete,
// 255 indica que sigue (incluso en la página siguiente).
func (o *opusReader) readPage() error {
	hdr, err := parseOggPageHeader(o.r)
	if err != nil {
		return err
	}
	total := 0
	for _, s := range hdr.SegmentTable {
		total += int(s)
	}
	body := make([]byte, total)
	if _, err := io.ReadFull(o.r, body); err != nil {
		return err
	}

	off := 0
	for _, s := range hdr.SegmentTable {
		o.partial = append(o.partial, body[off:off+int(s)]...)
		off += int(s)
		if s < 255 {
			o.pending = append(o.pending, o.partial)
			o.partial = nil
		}
	}
	return nil
}
