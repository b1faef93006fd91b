package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	netmail "net/mail"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/spigell/jobthai-scout/internal/candidate"
	"github.com/spigell/jobthai-scout/internal/salary"
)

func emailRecord(t *testing.T, withImage bool) *candidate.Record {
	t.Helper()

	r := &candidate.Record{
		ID:          "R-1",
		Name:        "สมชาย <script>",
		Age:         "29",
		DegreeLabel: "ป.ตรี",
		Positions:   []string{"QC", "QA"},
		Companies:   []string{"บริษัท เอ จำกัด"},
		Salary:      salary.Range{Min: "18,000", Max: "25,000"},
		LastUpdate:  "2วัน",
		Link:        "https://www.jobthai.com/resume/R-1",
	}
	if withImage {
		path := filepath.Join(t.TempDir(), "R-1.png")
		if err := os.WriteFile(path, []byte("\x89PNG fake"), 0o644); err != nil {
			t.Fatalf("write image: %v", err)
		}
		r.ImagePath = path
	}
	return r
}

type messageParts struct {
	subject string
	to      string
	html    string
	cids    []string
}

func parseMessage(t *testing.T, msg *mail.Msg) messageParts {
	t.Helper()

	var raw bytes.Buffer
	if _, err := msg.WriteTo(&raw); err != nil {
		t.Fatalf("write message: %v", err)
	}

	parsed, err := netmail.ReadMessage(&raw)
	if err != nil {
		t.Fatalf("read message: %v", err)
	}

	var out messageParts
	dec := new(mime.WordDecoder)
	if out.subject, err = dec.DecodeHeader(parsed.Header.Get("Subject")); err != nil {
		t.Fatalf("decode subject: %v", err)
	}
	out.to = parsed.Header.Get("To")

	walkPart(t, textproto.MIMEHeader(parsed.Header), parsed.Body, &out)
	return out
}

// walkPart collects the HTML body and the Content-IDs of a possibly nested
// multipart entity.
func walkPart(t *testing.T, header textproto.MIMEHeader, body io.Reader, out *messageParts) {
	t.Helper()

	mediaType, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		t.Fatalf("content type %q: %v", header.Get("Content-Type"), err)
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		mr := multipart.NewReader(body, params["boundary"])
		for {
			part, err := mr.NextRawPart()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				t.Fatalf("next part: %v", err)
			}
			walkPart(t, part.Header, part, out)
		}
	}

	data := decodeBody(t, header.Get("Content-Transfer-Encoding"), body)
	if mediaType == "text/html" {
		out.html = data
		return
	}
	if cid := header.Get("Content-Id"); cid != "" {
		out.cids = append(out.cids, strings.Trim(cid, "<>"))
	}
}

func decodeBody(t *testing.T, encoding string, body io.Reader) string {
	t.Helper()

	var r io.Reader = body
	switch strings.ToLower(encoding) {
	case "base64":
		raw, err := io.ReadAll(body)
		if err != nil {
			t.Fatalf("read part: %v", err)
		}
		clean := strings.NewReplacer("\r", "", "\n", "").Replace(string(raw))
		data, err := base64.StdEncoding.DecodeString(clean)
		if err != nil {
			t.Fatalf("decode base64: %v", err)
		}
		return string(data)
	case "quoted-printable":
		r = quotedprintable.NewReader(body)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read part: %v", err)
	}
	return string(data)
}

func TestBuildMessage(t *testing.T) {
	t.Parallel()

	msg, err := BuildMessage("bot@example.com", "hr@example.com", HotSubject("QC", "สมชาย"), hotCompanyHeader,
		[]*candidate.Record{emailRecord(t, true)})
	if err != nil {
		t.Fatalf("BuildMessage() error = %v", err)
	}

	got := parseMessage(t, msg)
	if got.subject != HotSubject("QC", "สมชาย") {
		t.Fatalf("subject = %q", got.subject)
	}
	if !strings.Contains(got.to, "hr@example.com") {
		t.Fatalf("to = %q", got.to)
	}
	for _, want := range []string{hotCompanyHeader, "cid:img_R-1", "18,000", "QC, QA", "https://www.jobthai.com/resume/R-1"} {
		if !strings.Contains(got.html, want) {
			t.Fatalf("html missing %q", want)
		}
	}
	if strings.Contains(got.html, "<script>") {
		t.Fatalf("candidate name was not escaped")
	}
	if len(got.cids) != 1 || got.cids[0] != "img_R-1" {
		t.Fatalf("inline images = %v", got.cids)
	}
}

func TestBuildMessageSkipsMissingImage(t *testing.T) {
	t.Parallel()

	r := emailRecord(t, false)
	r.ImagePath = filepath.Join(t.TempDir(), "missing.png")
	r.Companies = nil

	msg, err := BuildMessage("a@example.com", "b@example.com", "digest", digestCompanyHeader, []*candidate.Record{r})
	if err != nil {
		t.Fatalf("BuildMessage() error = %v", err)
	}

	got := parseMessage(t, msg)
	if len(got.cids) != 0 {
		t.Fatalf("expected no inline images, got %v", got.cids)
	}
	if strings.Contains(got.html, "cid:") {
		t.Fatalf("html references a missing image")
	}
	if !strings.Contains(got.html, digestCompanyHeader) {
		t.Fatalf("digest header missing")
	}
}

func TestBuildMessageRejectsBadAddress(t *testing.T) {
	t.Parallel()

	if _, err := BuildMessage("not an address", "b@example.com", "s", digestCompanyHeader, []*candidate.Record{emailRecord(t, false)}); err == nil {
		t.Fatal("expected error for a malformed sender")
	}
}

func TestEmailSendPerReceiver(t *testing.T) {
	t.Parallel()

	var sent []messageParts
	e := newEmail(EmailConfig{
		Sender:    "bot@example.com",
		Receivers: []string{"a@example.com", "b@example.com"},
	}, func(_ context.Context, msg *mail.Msg) error {
		got := parseMessage(t, msg)
		sent = append(sent, got)
		if strings.Contains(got.to, "b@example.com") {
			return errors.New("mailbox full")
		}
		return nil
	}, zap.NewNop())

	err := e.Send(WithKind(context.Background(), KindHot), "subject", []*candidate.Record{emailRecord(t, false)})
	if err == nil || !strings.Contains(err.Error(), "b@example.com: mailbox full") {
		t.Fatalf("Send() error = %v", err)
	}
	if len(sent) != 2 {
		t.Fatalf("send called %d times, want 2", len(sent))
	}
	if !strings.Contains(sent[0].to, "a@example.com") {
		t.Fatalf("unexpected first receiver %q", sent[0].to)
	}
	if !strings.Contains(sent[0].html, hotCompanyHeader) {
		t.Fatalf("hot message should use the hot company header")
	}
}

func TestEmailSendStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	e := newEmail(EmailConfig{
		Sender:    "bot@example.com",
		Receivers: []string{"a@example.com", "b@example.com"},
	}, func(ctx context.Context, _ *mail.Msg) error {
		calls++
		// a hung server: only the context ends the call
		time.AfterFunc(10*time.Millisecond, cancel)
		<-ctx.Done()
		return ctx.Err()
	}, zap.NewNop())

	err := e.Send(ctx, "subject", []*candidate.Record{emailRecord(t, false)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Send() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("send called %d times after cancel, want 1", calls)
	}
}

func TestEmailSendEmpty(t *testing.T) {
	t.Parallel()

	e := newEmail(EmailConfig{Receivers: []string{"a@example.com"}}, func(context.Context, *mail.Msg) error {
		t.Fatalf("send must not be called")
		return nil
	}, nil)
	if err := e.Send(context.Background(), "s", nil); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
}

func TestNewEmailRequiresHost(t *testing.T) {
	t.Parallel()

	if _, err := NewEmail(EmailConfig{Port: 587}, nil); err == nil {
		t.Fatal("expected error without an SMTP host")
	}
}
