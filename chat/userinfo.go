package chat

import "strings"

// MaxUserinfoLen is the longest userinfo string the host buffer accepts,
// excluding the terminator.
const MaxUserinfoLen = 1023

type field struct {
	key   string
	value string
}

// Userinfo is an ordered set of key/value pairs in the host's
// "\key\value\key\value" encoding.
type Userinfo struct {
	fields []field
}

// ParseUserinfo decodes a userinfo string. The leading backslash is
// optional and a trailing key without a value is dropped. A repeated key
// keeps its first position and its last value.
func ParseUserinfo(s string) Userinfo {
	s = strings.TrimPrefix(s, `\`)
	parts := strings.Split(s, `\`)
	var info Userinfo
	for i := 0; i+1 < len(parts); i += 2 {
		info.Set(parts[i], parts[i+1])
	}
	return info
}

func (u *Userinfo) find(k string) int {
	for i, f := range u.fields {
		if f.key == k {
			return i
		}
	}
	return -1
}

func (u *Userinfo) Get(k string) (string, bool) {
	if i := u.find(k); i >= 0 {
		return u.fields[i].value, true
	}
	return "", false
}

func (u *Userinfo) Set(k, v string) {
	if i := u.find(k); i >= 0 {
		u.fields[i].value = v
		return
	}
	u.fields = append(u.fields, field{key: k, value: v})
}

func (u *Userinfo) Delete(k string) {
	if i := u.find(k); i >= 0 {
		u.fields = append(u.fields[:i], u.fields[i+1:]...)
	}
}

func (u *Userinfo) Len() int {
	return len(u.fields)
}

// Keys returns the keys in order.
func (u *Userinfo) Keys() []string {
	keys := make([]string, 0, len(u.fields))
	for _, f := range u.fields {
		keys = append(keys, f.key)
	}
	return keys
}

// String encodes the pairs, each prefixed by a backslash.
func (u Userinfo) String() string {
	var b strings.Builder
	for _, f := range u.fields {
		b.WriteString(`\`)
		b.WriteString(f.key)
		b.WriteString(`\`)
		b.WriteString(f.value)
	}
	return b.String()
}

// Overrides holds per-client userinfo replacements. An override with an
// empty value removes the key from the client's userinfo.
type Overrides struct {
	clients map[int]*Userinfo
}

func NewOverrides() *Overrides {
	return &Overrides{clients: map[int]*Userinfo{}}
}

func (o *Overrides) client(n int) *Userinfo {
	info, ok := o.clients[n]
	if !ok {
		info = &Userinfo{}
		o.clients[n] = info
	}
	return info
}

// Set overrides key k for client n.
func (o *Overrides) Set(n int, k, v string) {
	o.client(n).Set(k, v)
}

// Unset drops the override of key k for client n.
func (o *Overrides) Unset(n int, k string) {
	if info, ok := o.clients[n]; ok {
		info.Delete(k)
	}
}

// Get returns the override of key k for client n.
func (o *Overrides) Get(n int, k string) (string, bool) {
	if info, ok := o.clients[n]; ok {
		return info.Get(k)
	}
	return "", false
}

// ClearClient drops every override for client n.
func (o *Overrides) ClearClient(n int) {
	delete(o.clients, n)
}

// Reset drops every override for every client.
func (o *Overrides) Reset() {
	o.clients = map[int]*Userinfo{}
}

// Apply merges client n's overrides into raw and returns the re-encoded
// userinfo, cut to MaxUserinfoLen bytes.
func (o *Overrides) Apply(n int, raw string) string {
	info := ParseUserinfo(raw)
	if over, ok := o.clients[n]; ok {
		for _, f := range over.fields {
			if f.value == "" {
				info.Delete(f.key)
			} else {
				info.Set(f.key, f.value)
			}
		}
	}
	out := info.String()
	if len(out) > MaxUserinfoLen {
		out = out[:MaxUserinfoLen]
	}
	return out
}
