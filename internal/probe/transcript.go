package probe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	ruleWidth  = 60
	timeLayout = "2006-01-02 15:04:05"
)

// transcript renders the human-readable record of one probe.
type transcript struct {
	w       io.Writer
	raw     bool
	heading lipgloss.Style
	ok      lipgloss.Style
	fail    lipgloss.Style
}

func newTranscript(w io.Writer, raw bool) *transcript {
	r := lipgloss.NewRenderer(w)
	return &transcript{
		w:       w,
		raw:     raw,
		heading: r.NewStyle().Bold(true),
		ok:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		fail:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
	}
}

func (t *transcript) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(t.w, format, args...)
}

func (t *transcript) println(args ...any) {
	_, _ = fmt.Fprintln(t.w, args...)
}

func (t *transcript) rule() {
	t.println(strings.Repeat("=", ruleWidth))
}

func (t *transcript) banner(title string, at time.Time) {
	t.rule()
	t.println(t.heading.Render(fmt.Sprintf("%s - %s", title, at.Format(timeLayout))))
	t.rule()
}

func (t *transcript) inputs(req Request) {
	t.printf("API URL: %s\n", req.APIURL)
	t.printf("API key: %s\n", RedactKey(req.APIKey))
	t.printf("Model: %s\n", req.Model)
	t.printf("Prompt: %s...\n", Excerpt(req.Prompt, promptExcerpt))
	t.printf("Provider: %s\n", req.Provider)
	t.rule()
}

func (t *transcript) request(header http.Header, body []byte) {
	t.println("\nSending request...")
	t.println("Request headers:")
	t.headers(header)
	t.println("Request body:")
	t.println(string(body))
}

func (t *transcript) response(res *Result) {
	t.println()
	t.rule()
	t.printf("Status code: %d\n", res.StatusCode)
	t.printf("Status: %s\n", res.Reason)
	t.printf("Elapsed: %.2fs\n", res.Elapsed.Seconds())
	t.rule()

	t.println("\nResponse headers:")
	t.headers(res.Header)

	if t.raw {
		t.printf("\nRaw response body (%d bytes):\n%q\n", len(res.Body), res.Body)
	}

	t.println("\nResponse body:")
	if pretty, ok := prettyJSON(res.Body); ok {
		t.println(pretty)
		return
	}
	t.println("Response body is not valid JSON:")
	t.println(string(res.Body))
}

func (t *transcript) reply(text string) {
	t.println("\nAssistant reply:")
	t.println(text)
}

func (t *transcript) headers(header http.Header) {
	names := make([]string, 0, len(header))
	for name := range header {
		names = append(names, name)
	}
	// http.Header is a map and keeps no wire order; sort for stable output.
	slices.Sort(names)
	for _, name := range names {
		t.printf("  %s: %s\n", name, strings.Join(header[name], ", "))
	}
}

func (t *transcript) success() {
	t.println("\n" + t.ok.Render("✓ API probe succeeded!"))
}

func (t *transcript) failure(format string, args ...any) {
	t.println("\n" + t.fail.Render("✗ "+fmt.Sprintf(format, args...)))
}

func (t *transcript) footer(at time.Time) {
	t.println()
	t.banner("AI API probe finished", at)
}

// prettyJSON indents body when it is valid JSON. Key order is kept and
// \uXXXX escapes are printed as the characters they encode.
func prettyJSON(body []byte) (string, bool) {
	if !json.Valid(body) {
		return "", false
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var b strings.Builder
	if err := writeJSONValue(&b, dec, 0); err != nil {
		return "", false
	}
	return b.String(), true
}

func writeJSONValue(b *strings.Builder, dec *json.Decoder, depth int) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch v := tok.(type) {
	case json.Delim:
		return writeJSONContainer(b, dec, v, depth)
	case string:
		quoted, err := encodeJSON(v, false)
		if err != nil {
			return err
		}
		b.Write(quoted)
	case json.Number:
		b.WriteString(v.String())
	case bool:
		b.WriteString(strconv.FormatBool(v))
	case nil:
		b.WriteString("null")
	default:
		return fmt.Errorf("unexpected json token %v", tok)
	}
	return nil
}

func writeJSONContainer(b *strings.Builder, dec *json.Decoder, open json.Delim, depth int) error {
	isObject := open == '{'
	closing := byte(']')
	if isObject {
		closing = '}'
	}
	b.WriteByte(byte(open))

	n := 0
	for dec.More() {
		if n > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
		b.WriteString(strings.Repeat("  ", depth+1))
		if isObject {
			if err := writeJSONValue(b, dec, depth+1); err != nil {
				return err
			}
			b.WriteString(": ")
		}
		if err := writeJSONValue(b, dec, depth+1); err != nil {
			return err
		}
		n++
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	if n > 0 {
		b.WriteByte('\n')
		b.WriteString(strings.Repeat("  ", depth))
	}
	b.WriteByte(closing)
	return nil
}

func encodeJSON(v any, indent bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
