package view

import (
	"errors"
	"fmt"

	"github.com/skip2/go-qrcode"

	"ticketsync/entity"
)

const DefaultQRSize = 256

var ErrNoQRCode = errors.New("ticket has no QR code")

// QRCodePNG renders the ticket's QR token, the value the validator scans.
func QRCodePNG(t entity.Ticket, size int) ([]byte, error) {
	if t.QRCode == "" {
		return nil, ErrNoQRCode
	}
	if size <= 0 {
		size = DefaultQRSize
	}

	png, err := qrcode.Encode(t.QRCode, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("could not encode QR code of ticket %s: %w", t.TicketID, err)
	}

	return png, nil
}
