// Package chat is the script-facing chat component: per-client userinfo
// overrides (names and clan tags), player-say filter callbacks, chat name
// colours and server command helpers.
//
// The component holds policy and state only. Intercepting the host's
// functions is the host's job; it calls UserinfoFor, ClientConnect,
// HandleSay and ChatColor from its own hooks, and the component calls back
// into the Host for effects.
package chat

import (
	"fmt"

	"github.com/deepnoodle-ai/scrvar/array"
	"github.com/deepnoodle-ai/scrvar/errz"
	"github.com/deepnoodle-ai/scrvar/value"
	"github.com/rs/zerolog"
)

// Host is the game server the component drives.
type Host interface {
	// SendServerCommand sends cmd to one client, or to all with client -1.
	SendServerCommand(client int, cmd string)
	// UserinfoChanged tells the host to re-read a client's userinfo.
	UserinfoChanged(client int)
	// IsPlayer reports whether entity number n is a connected client.
	IsPlayer(n int) bool
	// EntityID returns the script entity id for entity number n.
	EntityID(n int) uint32
}

// Entity is a script entity reference.
type Entity struct {
	ClassNum int
	EntNum   int
}

// SayCallback filters a chat message. It gets the speaking player's entity
// and an argument array [text, mode]. Returning the integer 0 hides the
// message.
type SayCallback func(player value.Value, args array.Array) value.Value

// Option is a configuration function for a Component.
type Option func(*Component)

// WithLogger sets the component's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Component) {
		c.log = logger
	}
}

// WithColorsFile sets the colour file loaded on the first ChatColor call.
func WithColorsFile(path string) Option {
	return func(c *Component) {
		c.colorsPath = path
	}
}

// WithColors sets the colour table directly.
func WithColors(t *ColorTable) Option {
	return func(c *Component) {
		c.colors = t
	}
}

// Component is the chat component.
type Component struct {
	host       Host
	store      array.Store
	log        zerolog.Logger
	overrides  *Overrides
	callbacks  []SayCallback
	colors     *ColorTable
	colorsPath string
}

// New returns a component driving host. Argument arrays for say callbacks
// are allocated in s.
func New(host Host, s array.Store, opts ...Option) *Component {
	c := &Component{
		host:      host,
		store:     s,
		log:       zerolog.Nop(),
		overrides: NewOverrides(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Overrides exposes the per-client overrides.
func (c *Component) Overrides() *Overrides {
	return c.overrides
}

// UserinfoFor applies client n's overrides to the userinfo string the host
// is about to hand out.
func (c *Component) UserinfoFor(n int, raw string) string {
	return c.overrides.Apply(n, raw)
}

// ClientConnect forgets the overrides of a client slot being reused.
func (c *Component) ClientConnect(n int) {
	c.overrides.ClearClient(n)
}

// Shutdown drops all overrides and say callbacks.
func (c *Component) Shutdown() {
	c.overrides.Reset()
	c.callbacks = nil
}

// OnPlayerSay registers a say filter.
func (c *Component) OnPlayerSay(fn SayCallback) {
	c.callbacks = append(c.callbacks, fn)
}

// HandleSay runs every say filter for a message from client n and reports
// whether the message should be hidden. A filter returning the integer 0
// hides it, and a later filter cannot show it again. Every filter runs even
// after one has hidden the message.
func (c *Component) HandleSay(n int, text string, mode int) bool {
	hidden := false
	for _, fn := range c.callbacks {
		player := value.Entity(c.host.EntityID(n))
		args := array.FromValues(c.store, []value.Value{value.String(text), value.Int(int64(mode))})
		result := fn(player, args)
		args.Release()

		if i, ok := result.AsInt(); ok && !hidden {
			hidden = i == 0
		}
	}
	if hidden {
		c.log.Debug().Int("client", n).Str("text", text).Msg("chat message hidden")
	}
	return hidden
}

// ChatColor returns the colour code to print a player's name in, falling
// back to teamColor for players without one. The colour file is read again
// on every call while the table is empty.
func (c *Component) ChatColor(name, teamColor string) string {
	if c.colors.Len() == 0 && c.colorsPath != "" {
		t, err := LoadColors(c.colorsPath)
		if err != nil {
			c.log.Warn().Err(err).Msg("chat colors unavailable")
		} else {
			c.colors = t
		}
	}
	if code, ok := c.colors.Lookup(name); ok {
		return code
	}
	return teamColor
}

func (c *Component) player(ent Entity) (int, error) {
	if ent.ClassNum != 0 {
		return 0, errz.InvalidEntityf("invalid entity")
	}
	if !c.host.IsPlayer(ent.EntNum) {
		return 0, errz.InvalidEntityf("not a player entity")
	}
	return ent.EntNum, nil
}

func stringArg(v value.Value, name string) (string, error) {
	s, ok := v.AsString()
	if !ok {
		return "", errz.TypeErrorf("%s must be a string, got %s", name, v.Type())
	}
	return s, nil
}

func (c *Component) setOverrides(ent Entity, pairs ...string) error {
	n, err := c.player(ent)
	if err != nil {
		return err
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		c.overrides.Set(n, pairs[i], pairs[i+1])
	}
	c.host.UserinfoChanged(n)
	return nil
}

func (c *Component) unsetOverrides(ent Entity, keys ...string) error {
	n, err := c.player(ent)
	if err != nil {
		return err
	}
	for _, k := range keys {
		c.overrides.Unset(n, k)
	}
	c.host.UserinfoChanged(n)
	return nil
}

// SetName overrides a player's name.
func (c *Component) SetName(ent Entity, name value.Value) error {
	s, err := stringArg(name, "name")
	if err != nil {
		return err
	}
	c.log.Debug().Int("client", ent.EntNum).Str("name", s).Msg("name override")
	return c.setOverrides(ent, "name", s)
}

// Rename is an alias of SetName.
func (c *Component) Rename(ent Entity, name value.Value) error {
	return c.SetName(ent, name)
}

// ResetName drops a player's name override.
func (c *Component) ResetName(ent Entity) error {
	return c.unsetOverrides(ent, "name")
}

// SetClanTag overrides a player's clan tag.
func (c *Component) SetClanTag(ent Entity, tag value.Value) error {
	s, err := stringArg(tag, "clan tag")
	if err != nil {
		return err
	}
	return c.setOverrides(ent, "clantag", s, "clanAbbrev", s, "clanAbbrevEV", "1")
}

// ResetClanTag drops a player's clan tag override.
func (c *Component) ResetClanTag(ent Entity) error {
	return c.unsetOverrides(ent, "clantag", "clanAbbrev", "clanAbbrevEV")
}

// Tell prints a chat line to one player.
func (c *Component) Tell(ent Entity, msg value.Value) error {
	n, err := c.player(ent)
	if err != nil {
		return err
	}
	s, err := stringArg(msg, "message")
	if err != nil {
		return err
	}
	c.host.SendServerCommand(n, chatCommand(s))
	return nil
}

// Say prints a chat line to every player.
func (c *Component) Say(msg value.Value) error {
	s, err := stringArg(msg, "message")
	if err != nil {
		return err
	}
	c.host.SendServerCommand(-1, chatCommand(s))
	return nil
}

// SendServerCommand sends a raw server command to the client numbered by
// an int value.
func (c *Component) SendServerCommand(client, cmd value.Value) error {
	n, ok := client.AsInt()
	if !ok {
		return errz.TypeErrorf("client must be an int, got %s", client.Type())
	}
	s, err := stringArg(cmd, "command")
	if err != nil {
		return err
	}
	c.host.SendServerCommand(int(n), s)
	return nil
}

// SendServerCommandTo sends a raw server command to an entity's client.
func (c *Component) SendServerCommandTo(ent Entity, cmd value.Value) error {
	s, err := stringArg(cmd, "command")
	if err != nil {
		return err
	}
	c.host.SendServerCommand(ent.EntNum, s)
	return nil
}

func chatCommand(msg string) string {
	return fmt.Sprintf("j \"%s\"", msg)
}
