package decode

import (
	"bytes"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ProtocolKey is the top level key of every HFDL record emitted by dumphfdl
const ProtocolKey = "hfdl"

// Message is the hfdl object of one decoder output line
type Message struct {
	// Raw is the hfdl object exactly as emitted, kept for storage
	Raw jsoniter.RawMessage
	// Fields is the decoded object, nil if hfdl was not an object
	Fields map[string]interface{}
}

// ParseLine extracts the hfdl object from one output line.
// Chatter, broken JSON and records of other protocols report false.
func ParseLine(line []byte) (Message, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] != '{' {
		return Message{}, false
	}

	var envelope map[string]jsoniter.RawMessage
	if err := json.Unmarshal(line, &envelope); err != nil {
		return Message{}, false
	}

	raw, ok := envelope[ProtocolKey]
	if !ok {
		return Message{}, false
	}

	msg := Message{Raw: append(jsoniter.RawMessage(nil), raw...)}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err == nil {
		msg.Fields = fields
	}

	return msg, true
}

// lineCollector parses decoder output as it streams in
type lineCollector struct {
	mu      sync.Mutex
	partial []byte
	msgs    []Message
	skipped int
}

func (c *lineCollector) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.partial = append(c.partial, p...)
	for {
		idx := bytes.IndexByte(c.partial, '\n')
		if idx < 0 {
			break
		}
		c.consume(c.partial[:idx])
		c.partial = c.partial[idx+1:]
	}

	return len(p), nil
}

// flush handles a trailing line without newline
func (c *lineCollector) flush() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.partial) > 0 {
		c.consume(c.partial)
		c.partial = nil
	}

	return c.msgs
}

func (c *lineCollector) consume(line []byte) {
	if msg, ok := ParseLine(line); ok {
		c.msgs = append(c.msgs, msg)
		return
	}

	if len(bytes.TrimSpace(line)) > 0 {
		c.skipped++
	}
}
