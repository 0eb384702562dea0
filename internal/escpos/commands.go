package escpos

// ESC/POS control directives for thermal receipt printers.
//
// These byte sequences are sent to hardware with no further
// interpretation layer, so the values must match the common thermal
// command set exactly (Epson ESC/POS and compatibles).
var (
	// cmdInit resets the printer to its power-on state (ESC @).
	cmdInit = []byte{0x1B, 0x40}

	// cmdAlignCenter / cmdAlignLeft select justification (ESC a n).
	cmdAlignCenter = []byte{0x1B, 0x61, 0x01}
	cmdAlignLeft   = []byte{0x1B, 0x61, 0x00}

	// cmdBoldOn / cmdBoldOff toggle emphasis (ESC E n).
	cmdBoldOn  = []byte{0x1B, 0x45, 0x01}
	cmdBoldOff = []byte{0x1B, 0x45, 0x00}

	// cmdUnderlineOn / cmdUnderlineOff toggle underline (ESC - n).
	cmdUnderlineOn  = []byte{0x1B, 0x2D, 0x01}
	cmdUnderlineOff = []byte{0x1B, 0x2D, 0x00}

	// cmdFontSmall / cmdFontNormal select character font (ESC M n).
	cmdFontSmall  = []byte{0x1B, 0x4D, 0x01}
	cmdFontNormal = []byte{0x1B, 0x4D, 0x00}

	// cmdFeedLines prints and feeds three lines (ESC d 3).
	cmdFeedLines = []byte{0x1B, 0x64, 0x03}

	// cmdCutPaper performs a full cut (GS V 0).
	cmdCutPaper = []byte{0x1D, 0x56, 0x00}

	// cmdDrawerPulse fires the cash-drawer kick-out pulse on pin 2
	// (ESC p 0 25ms 100ms).
	cmdDrawerPulse = []byte{0x1B, 0x70, 0x00, 0x19, 0x64}
)

// DrawerPulse returns the drawer kick-out directive. The dispatcher
// sends it as its own best-effort write after a successful cash print;
// it is not part of any receipt stream.
func DrawerPulse() []byte {
	out := make([]byte, len(cmdDrawerPulse))
	copy(out, cmdDrawerPulse)
	return out
}
