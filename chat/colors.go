package chat

import (
	"fmt"

	"github.com/spf13/viper"
)

// Palette lists the colour names a colour file may use, in code order:
// "black" is ^0 and "brown" is ^9.
var Palette = []string{
	"black", "red", "green", "yellow", "blue",
	"cyan", "purple", "white", "grey", "brown",
}

// ColorTable maps player names to chat colour codes.
//
// The file format groups names by colour:
//
//	{
//	  "purple": ["DoktorSAS"],
//	  "red": ["fed"]
//	}
type ColorTable struct {
	names map[string]string
}

// LoadColors reads a colour file. Unknown colour names are ignored; a name
// listed under several colours gets the last one in palette order.
func LoadColors(path string) (*ColorTable, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("chat: reading colors from %s: %w", path, err)
	}
	t := &ColorTable{names: map[string]string{}}
	for i, c := range Palette {
		for _, name := range v.GetStringSlice(c) {
			t.names[name] = fmt.Sprintf("^%d", i)
		}
	}
	return t, nil
}

// Lookup returns the colour code for a player name.
func (t *ColorTable) Lookup(name string) (string, bool) {
	if t == nil {
		return "", false
	}
	code, ok := t.names[name]
	return code, ok
}

// Len returns the number of names with a colour.
func (t *ColorTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

// Names returns a copy of the name to code mapping.
func (t *ColorTable) Names() map[string]string {
	out := make(map[string]string, t.Len())
	if t != nil {
		for k, v := range t.names {
			out[k] = v
		}
	}
	return out
}
