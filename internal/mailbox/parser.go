package mailbox

import (
	"io"
	"mime"
	"regexp"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-message/mail"

	"parentpal_backend/internal/services/dto"
)

var addressPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// ParseMessage converts a fetched IMAP message into an IncomingMessage ready
// for ingestion. The Message-Id header becomes the provider message ID so
// repeated polls of the same mail dedupe cleanly.
func ParseMessage(msg *imap.Message) (*dto.IncomingMessage, error) {
	section := &imap.BodySectionName{}
	r := msg.GetBody(section)
	if r == nil {
		return nil, io.EOF
	}

	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, err
	}

	header := mr.Header

	incoming := &dto.IncomingMessage{
		From:              extractAddress(header.Get("From")),
		ProviderMessageID: strings.Trim(header.Get("Message-Id"), "<> "),
		ReceivedAt:        msg.InternalDate,
	}

	if toList, err := header.AddressList("To"); err == nil && len(toList) > 0 {
		incoming.To = toList[0].Address
	}

	subject, err := decodeHeader(header.Get("Subject"))
	if err != nil {
		return nil, err
	}
	incoming.Subject = subject

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}

		switch h := p.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, err := h.ContentType()
			if err != nil {
				continue
			}
			if contentType == "text/plain" {
				body, err := io.ReadAll(p.Body)
				if err != nil {
					continue
				}
				incoming.Body = string(body)
			}
		}
	}

	return incoming, nil
}

func extractAddress(fromHeader string) string {
	return addressPattern.FindString(fromHeader)
}

// decodeHeader decodes MIME-encoded headers (e.g. "=?UTF-8?B?...?=") to plain text.
func decodeHeader(encoded string) (string, error) {
	decoder := new(mime.WordDecoder)
	decoded, err := decoder.DecodeHeader(encoded)
	if err != nil {
		return "", err
	}
	return decoded, nil
}
