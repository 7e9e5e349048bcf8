package main

import (
	"flag"
	"log"
	"math/rand/v2"
	"net"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// generator writes synthetic device traffic: benign TCP/UDP sessions from a
// home network plus optional SYN/FIN floods from a few compromised hosts.
type generator struct {
	w   *pcapgo.Writer
	rnd *rand.Rand
	now time.Time
	n   int
}

func main() {
	outputFile := flag.String("o", "test.pcap", "Output pcap file path")
	flowCount := flag.Int("c", 50, "Number of benign flows to generate")
	bots := flag.Int("bots", 3, "Number of flooding hosts")
	floodPackets := flag.Int("flood", 500, "Packets sent by each flooding host")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "Random seed")
	flag.Parse()

	f, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	pcapWriter := pcapgo.NewWriter(f)
	if err := pcapWriter.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		log.Fatalf("Failed to write pcap header: %v", err)
	}

	g := &generator{w: pcapWriter, rnd: rand.New(rand.NewPCG(*seed, 0)), now: time.Now()}
	log.Printf("Generating %d benign flows and %d flooding hosts into %s...", *flowCount, *bots, *outputFile)

	for i := 0; i < *flowCount; i++ {
		src := net.IP{192, 168, 1, byte(100 + i%100)}
		dst := net.IP{8, 8, byte(g.rnd.IntN(256)), byte(g.rnd.IntN(256))}
		if g.rnd.IntN(4) == 0 {
			g.udpFlow(src, dst, 2+g.rnd.IntN(8))
		} else {
			g.tcpFlow(src, dst, 5+g.rnd.IntN(40))
		}
	}
	for b := 0; b < *bots; b++ {
		g.flood(net.IP{10, 0, 0, byte(66 + b)}, net.IP{10, 0, 0, 1}, *floodPackets)
	}

	log.Printf("Successfully generated %d packets into %s.", g.n, *outputFile)
}

func (g *generator) tcpFlow(src, dst net.IP, packets int) {
	srcPort := layers.TCPPort(g.rnd.IntN(65535-1024) + 1024)
	for i := 0; i < packets; i++ {
		tcp := &layers.TCP{SrcPort: srcPort, DstPort: 443, Seq: g.rnd.Uint32(), Window: 14600, ACK: true, PSH: i%3 == 0}
		g.advance(time.Duration(20+g.rnd.IntN(80)) * time.Millisecond)
		g.write(src, dst, layers.IPProtocolTCP, tcp, 600+g.rnd.IntN(800))
	}
}

func (g *generator) udpFlow(src, dst net.IP, packets int) {
	udp := &layers.UDP{SrcPort: layers.UDPPort(g.rnd.IntN(65535-1024) + 1024), DstPort: 53}
	for i := 0; i < packets; i++ {
		g.advance(time.Duration(50+g.rnd.IntN(200)) * time.Millisecond)
		g.write(src, dst, layers.IPProtocolUDP, udp, 40+g.rnd.IntN(200))
	}
}

// flood sends small SYN/FIN segments as fast as possible from one port.
func (g *generator) flood(src, dst net.IP, packets int) {
	srcPort := layers.TCPPort(g.rnd.IntN(65535-1024) + 1024)
	for i := 0; i < packets; i++ {
		tcp := &layers.TCP{SrcPort: srcPort, DstPort: 80, Seq: g.rnd.Uint32(), Window: 1024, SYN: true, FIN: true}
		g.advance(100 * time.Microsecond)
		g.write(src, dst, layers.IPProtocolTCP, tcp, 0)
	}
}

func (g *generator) advance(d time.Duration) {
	g.now = g.now.Add(d)
}

func (g *generator) write(src, dst net.IP, proto layers.IPProtocol, transport gopacket.SerializableLayer, payloadSize int) {
	ethLayer := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, src[3]},
		DstMAC:       net.HardwareAddr{0x00, 0x66, 0x77, 0x88, 0x99, 0xAA},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ipLayer := &layers.IPv4{SrcIP: src, DstIP: dst, Version: 4, TTL: 64, Protocol: proto}
	switch l := transport.(type) {
	case *layers.TCP:
		l.SetNetworkLayerForChecksum(ipLayer)
	case *layers.UDP:
		l.SetNetworkLayerForChecksum(ipLayer)
	}

	payload := make([]byte, payloadSize)
	for i := range payload {
		payload[i] = byte(g.rnd.IntN(256))
	}

	// Serialize the packet
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, ethLayer, ipLayer, transport, gopacket.Payload(payload)); err != nil {
		log.Fatalf("Failed to serialize layers: %v", err)
	}

	ci := gopacket.CaptureInfo{Timestamp: g.now, CaptureLength: len(buf.Bytes()), Length: len(buf.Bytes())}
	if err := g.w.WritePacket(ci, buf.Bytes()); err != nil {
		log.Fatalf("Failed to write packet: %v", err)
	}
	g.n++
}
