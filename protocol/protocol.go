// Package protocol implements the LHYMICRO-GL command vocabulary spoken by K40 Nano boards
package protocol

// Single byte commands
const (
	CmdRight     byte = 'B'
	CmdLeft      byte = 'T'
	CmdTop       byte = 'L'
	CmdBottom    byte = 'R'
	CmdAngle     byte = 'M' // diagonal run, distance follows
	CmdOn        byte = 'D' // laser down
	CmdOff       byte = 'U' // laser up
	CmdNext      byte = 'N'
	CmdInterrupt byte = 'I'
	CmdSpeed     byte = 'V'
	CmdCut       byte = 'C'
	CmdStep      byte = 'G'
	CmdFinish    byte = 'F'
	CmdReset     byte = '@'
)

// Multi-byte sequences. These are a fixed contract with the controller firmware.
const (
	SeqHome         = "IPP"
	SeqLockRail     = "IPS1P"
	SeqUnlockRail   = "IPS2P"
	SeqEndCommand   = "S1P"     // closes a Default mode transaction
	SeqCompactStart = "S1E"
	SeqSessionEnd   = "SE"
	SeqFinish       = "FNSE"    // finish + reset + session end
	SeqResetSession = "@NSE"    // reset + session end
	SeqHardReset    = "S1E@NSE" // jump into compact and reset from concat
)

// Packet framing constants
const (
	PacketHeader      = 0xA6
	PacketPayloadSize = 30
	PacketSize        = PacketPayloadSize + 4 // header, 0x00, payload, header, crc
	PacketPad         = 'F'

	// HelloByte requests a status reply from the board
	HelloByte       = 0xA0
	StatusReplySize = 6
	StatusPosition  = 1
)

// Status values reported by the board in reply to HelloByte
const (
	StatusOK         = 206
	StatusCRCError   = 207
	StatusBusy       = 238
	StatusFinished   = 236
	StatusPowerCycle = 239
)
