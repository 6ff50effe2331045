package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

// DownloadTicket identifies a rendered export artifact and its validity
// window.
type DownloadTicket struct {
	JobID     string
	Path      string
	ExpiresAt time.Time
}

// TicketSigner mints and redeems HMAC-signed download tickets. The ticket is
// the sole credential on the download route, so it carries everything needed
// to locate the artifact: the export job id, the relative file path and an
// expiry timestamp, all covered by the signature.
type TicketSigner struct {
	key []byte
	ttl time.Duration
}

// NewTicketSigner builds a signer. Tickets expire ttl after issue.
func NewTicketSigner(secret string, ttl time.Duration) *TicketSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TicketSigner{key: []byte(secret), ttl: ttl}
}

// Issue mints a ticket for the artifact the given job rendered at path.
func (s *TicketSigner) Issue(jobID, path string) (string, time.Time, error) {
	if jobID == "" || path == "" {
		return "", time.Time{}, errors.New("ticket needs a job id and a path")
	}
	if len(s.key) == 0 {
		return "", time.Time{}, errors.New("ticket signing key is empty")
	}
	expiresAt := time.Now().Add(s.ttl).Truncate(time.Second)
	payload := strings.Join([]string{jobID, strconv.FormatInt(expiresAt.Unix(), 10), path}, "\n")
	body := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return body + "~" + s.sign(body), expiresAt, nil
}

// Redeem verifies a ticket and returns the artifact it references. Tampered,
// malformed and expired tickets are all rejected.
func (s *TicketSigner) Redeem(token string) (DownloadTicket, error) {
	body, signature, ok := strings.Cut(token, "~")
	if !ok {
		return DownloadTicket{}, errors.New("malformed download ticket")
	}
	if !hmac.Equal([]byte(s.sign(body)), []byte(signature)) {
		return DownloadTicket{}, errors.New("download ticket signature mismatch")
	}

	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return DownloadTicket{}, errors.New("malformed download ticket")
	}
	fields := strings.SplitN(string(raw), "\n", 3)
	if len(fields) != 3 {
		return DownloadTicket{}, errors.New("malformed download ticket")
	}
	expUnix, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return DownloadTicket{}, errors.New("malformed download ticket")
	}

	ticket := DownloadTicket{
		JobID:     fields[0],
		Path:      fields[2],
		ExpiresAt: time.Unix(expUnix, 0),
	}
	if time.Now().After(ticket.ExpiresAt) {
		return DownloadTicket{}, errors.New("download ticket expired")
	}
	return ticket, nil
}

func (s *TicketSigner) sign(body string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
