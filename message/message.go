// Package message defines the gateway-facing message shape and the
// partitioning of a message list into its cacheable prefix.
//
// A message is cacheable when any of its content parts carries a cache
// annotation. Only the first maximal contiguous run of cacheable messages
// is treated as the cacheable prefix; annotated messages appearing after a
// break in contiguity are deliberately demoted to ordinary messages.
package message

// CacheControl marks a content part for provider-side caching.
// TTL, when set, requests a lifetime for the remote entry using the
// seconds-string format (e.g. "3600s").
type CacheControl struct {
	Type string `json:"type"`
	TTL  string `json:"ttl,omitempty"`
}

// Part is a single content block within a message.
type Part struct {
	Type         string        `json:"type"`
	Text         string        `json:"text,omitempty"`
	CacheControl *CacheControl `json:"cache_control,omitempty"`
}

// Message is a single turn in the request's ordered message list.
type Message struct {
	Role  string `json:"role"`
	Parts []Part `json:"content"`
}

// Cacheable reports whether any content part carries a cache annotation.
func (m Message) Cacheable() bool {
	for _, p := range m.Parts {
		if p.CacheControl != nil {
			return true
		}
	}
	return false
}

// Partition splits msgs into the cacheable prefix and the remainder.
//
// The cacheable slice is the first maximal contiguous run of cacheable
// messages; everything else is the remainder, order preserved. With no
// cacheable messages at all, cacheable is nil and remainder is the input
// unchanged. Partition never mutates its input.
func Partition(msgs []Message) (cacheable, remainder []Message) {
	first := -1
	for i, m := range msgs {
		if m.Cacheable() {
			first = i
			break
		}
	}
	if first == -1 {
		return nil, msgs
	}

	last := first
	for last+1 < len(msgs) && msgs[last+1].Cacheable() {
		last++
	}

	cacheable = make([]Message, last-first+1)
	copy(cacheable, msgs[first:last+1])

	remainder = make([]Message, 0, len(msgs)-len(cacheable))
	remainder = append(remainder, msgs[:first]...)
	remainder = append(remainder, msgs[last+1:]...)
	return cacheable, remainder
}

// TTL returns the first non-empty TTL string carried by a cache annotation
// in msgs, or "" when none is present.
func TTL(msgs []Message) string {
	for _, m := range msgs {
		for _, p := range m.Parts {
			if p.CacheControl != nil && p.CacheControl.TTL != "" {
				return p.CacheControl.TTL
			}
		}
	}
	return ""
}
