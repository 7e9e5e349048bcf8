// Package protocol decodes captured packets into the fields traffic records are built from.
package protocol

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

var (
	ErrNotIPv4              = errors.New("not an IPv4 packet")
	ErrUnsupportedTransport = errors.New("not a TCP, UDP or ICMP packet")
)

// FiveTuple represents the 5-tuple of a network flow.
type FiveTuple struct {
	SrcIP    net.IP
	DstIP    net.IP
	SrcPort  uint16
	DstPort  uint16
	Protocol uint8
}

// Key identifies the flow the tuple belongs to.
func (t FiveTuple) Key() string {
	return fmt.Sprintf("%s:%d-%s:%d/%d", t.SrcIP, t.SrcPort, t.DstIP, t.DstPort, t.Protocol)
}

// PacketInfo holds the metadata extracted from a single packet.
type PacketInfo struct {
	Timestamp time.Time
	FiveTuple FiveTuple
	Length    int
	Flags     []string // TCP only
}

// ProtocolName returns the label used in traffic records.
func ProtocolName(p uint8) string {
	switch layers.IPProtocol(p) {
	case layers.IPProtocolTCP:
		return "TCP"
	case layers.IPProtocolUDP:
		return "UDP"
	case layers.IPProtocolICMPv4:
		return "ICMP"
	default:
		return layers.IPProtocol(p).String()
	}
}

// TCPFlags lists the flags set on a segment in a fixed order.
func TCPFlags(tcp *layers.TCP) []string {
	var flags []string
	for _, f := range []struct {
		set  bool
		name string
	}{
		{tcp.SYN, "SYN"},
		{tcp.ACK, "ACK"},
		{tcp.FIN, "FIN"},
		{tcp.RST, "RST"},
		{tcp.PSH, "PSH"},
		{tcp.URG, "URG"},
	} {
		if f.set {
			flags = append(flags, f.name)
		}
	}
	return flags
}

// ParsePacket extracts the 5-tuple, length and TCP flags of a decoded packet.
func ParsePacket(packet gopacket.Packet) (*PacketInfo, error) {
	info := &PacketInfo{
		Timestamp: time.Now(), // overwritten by capture metadata when present
		Length:    len(packet.Data()),
	}
	if meta := packet.Metadata(); meta != nil {
		if !meta.Timestamp.IsZero() {
			info.Timestamp = meta.Timestamp
		}
		if meta.Length > 0 {
			info.Length = meta.Length
		}
	}

	ip, ok := packet.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
	if !ok {
		return nil, ErrNotIPv4
	}
	tuple := FiveTuple{SrcIP: ip.SrcIP, DstIP: ip.DstIP, Protocol: uint8(ip.Protocol)}

	switch {
	case packet.Layer(layers.LayerTypeTCP) != nil:
		tcp := packet.Layer(layers.LayerTypeTCP).(*layers.TCP)
		tuple.SrcPort = uint16(tcp.SrcPort)
		tuple.DstPort = uint16(tcp.DstPort)
		info.Flags = TCPFlags(tcp)
	case packet.Layer(layers.LayerTypeUDP) != nil:
		udp := packet.Layer(layers.LayerTypeUDP).(*layers.UDP)
		tuple.SrcPort = uint16(udp.SrcPort)
		tuple.DstPort = uint16(udp.DstPort)
	case packet.Layer(layers.LayerTypeICMPv4) != nil:
	default:
		return nil, ErrUnsupportedTransport
	}

	info.FiveTuple = tuple
	return info, nil
}
