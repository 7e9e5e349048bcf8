// Package pcap converts packet captures into traffic records.
package pcap

import (
	"BotSpectra/internal/engine/protocol"
	"bufio"
	"bytes"
	"fmt"
	"log"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

var pcapngMagic = []byte{0x0a, 0x0d, 0x0d, 0x0a}

type packetReader interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

// Reader reads packets from a pcap or pcapng file.
type Reader struct {
	f      *os.File
	src    packetReader
	format string
}

// NewReader opens the capture at filePath, detecting its format from the magic number.
func NewReader(filePath string) (*Reader, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(f)
	magic, err := br.Peek(4)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read capture header: %w", err)
	}

	r := &Reader{f: f}
	if bytes.Equal(magic, pcapngMagic) {
		r.src, err = pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		r.format = "pcapng"
	} else {
		r.src, err = pcapgo.NewReader(br)
		r.format = "pcap"
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to open %s capture: %w", r.format, err)
	}
	return r, nil
}

// Format returns "pcap" or "pcapng".
func (r *Reader) Format() string {
	return r.format
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}

// ReadPackets sends every decodable packet to out and closes it when the
// capture is exhausted. It returns the number of packets skipped.
func (r *Reader) ReadPackets(out chan<- *protocol.PacketInfo) int {
	defer close(out)

	skipped := 0
	packetSource := gopacket.NewPacketSource(r.src, r.src.LinkType())
	for packet := range packetSource.Packets() {
		info, err := protocol.ParsePacket(packet)
		if err != nil {
			// Unsupported packet types are common in real captures.
			skipped++
			continue
		}
		out <- info
	}
	if skipped > 0 {
		log.Printf("Skipped %d packets that are not IPv4 TCP, UDP or ICMP.", skipped)
	}
	return skipped
}
