package protocol

import (
	"fmt"

	"github.com/sigurn/crc8"
)

// Dallas/Maxim 1-Wire CRC, the checksum the board verifies on each payload
var crcTable = crc8.MakeTable(crc8.CRC8_MAXIM)

// CRC8 calculates the checksum for a packet payload
func CRC8(data []byte) byte {
	return crc8.Checksum(data, crcTable)
}

// EncodePacketTo frames a payload of at most PacketPayloadSize bytes.
// Short payloads are padded with PacketPad.
func EncodePacketTo(output OutputBuffer, payload []byte) error {
	if len(payload) > PacketPayloadSize {
		return fmt.Errorf("payload too long: %d bytes (max %d)", len(payload), PacketPayloadSize)
	}

	cursor := output.CurPosition()
	output.Output([]byte{PacketHeader, 0})
	output.Output(payload)
	for i := len(payload); i < PacketPayloadSize; i++ {
		output.Output([]byte{PacketPad})
	}
	body := output.DataSince(cursor + 2)
	output.Output([]byte{PacketHeader, CRC8(body)})
	return nil
}

// EncodePacket is a helper that returns a complete packet
func EncodePacket(payload []byte) ([]byte, error) {
	output := NewScratchOutput()
	if err := EncodePacketTo(output, payload); err != nil {
		return nil, err
	}
	return output.Result(), nil
}

// DecodePacket validates framing and checksum and returns the payload
func DecodePacket(packet []byte) ([]byte, error) {
	if len(packet) != PacketSize {
		return nil, fmt.Errorf("bad packet length %d (want %d)", len(packet), PacketSize)
	}
	if packet[0] != PacketHeader || packet[1] != 0 || packet[PacketSize-2] != PacketHeader {
		return nil, fmt.Errorf("bad packet framing")
	}
	payload := packet[2 : 2+PacketPayloadSize]
	if crc := CRC8(payload); crc != packet[PacketSize-1] {
		return nil, fmt.Errorf("crc mismatch: frame %02X, computed %02X", packet[PacketSize-1], crc)
	}
	return payload, nil
}
