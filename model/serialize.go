package model

import (
	"encoding/gob"
	"io"

	"github.com/cortexo/zerocore/game"
	"github.com/pkg/errors"
)

// FormatVersion is bumped whenever Header's shape or the parameter stream
// layout changes incompatibly.
const FormatVersion = 1

// Header is the tagged envelope spec.md §6 requires: format version, game
// type tag, backend, and the layer descriptors needed to reconstruct a
// compatible BaseModel before decoding the parameter stream that follows
// it, mirroring the teacher's AZ.Save/Load (which gob-encodes a *dual.Dual
// directly) but making the envelope explicit and versioned.
type Header struct {
	FormatVersion int
	GameTag       string
	Backend       string // "cpu" or "gpu"; BaseModel itself only ever runs on "cpu" here
	Layers        []LayerDescriptor
}

// LayerDescriptor names one trainable parameter tensor, in the exact order
// the parameter stream that follows the header encodes it.
type LayerDescriptor struct {
	Name  string
	Shape []int
}

func headerFor[G_ game.Game](gameTag string, m *BaseModel[G_]) Header {
	layers := make([]LayerDescriptor, 0, len(m.Params()))
	for _, p := range m.Params() {
		layers = append(layers, LayerDescriptor{Name: p.Name(), Shape: p.Shape().Clone()})
	}
	return Header{
		FormatVersion: FormatVersion,
		GameTag:       gameTag,
		Backend:       "cpu",
		Layers:        layers,
	}
}

// SaveModel writes m's tagged envelope header followed by its gob-encoded
// parameter stream. gameTag should identify the concrete game type (e.g.
// "tictactoe") so LoadModel can refuse to load a model trained for a
// different game. Saving always moves to the CPU backend first, per
// spec.md §6; BaseModel never runs on any other backend in this core, so
// that step is implicit.
func SaveModel[G_ game.Game](w io.Writer, gameTag string, m *BaseModel[G_]) error {
	enc := gob.NewEncoder(w)
	if err := enc.Encode(headerFor(gameTag, m)); err != nil {
		return errors.Wrap(err, "model: encoding header")
	}
	params, err := m.GobEncode()
	if err != nil {
		return errors.Wrap(err, "model: encoding parameters")
	}
	if err := enc.Encode(params); err != nil {
		return errors.Wrap(err, "model: writing parameter stream")
	}
	return nil
}

// LoadModel reads a Header and parameter stream written by SaveModel into
// an already-constructed-and-Init'd BaseModel (the caller must build one
// with matching architecture from the Header's Layers before calling
// LoadModel, the same two-step "construct a compatible shell, then decode
// into it" flow the teacher's AZ.Load uses). The result is always a CPU
// model; the caller may Swap it afterwards.
func LoadModel[G_ game.Game](r io.Reader, wantGameTag string, m *BaseModel[G_]) error {
	dec := gob.NewDecoder(r)
	var hdr Header
	if err := dec.Decode(&hdr); err != nil {
		return errors.Wrap(ErrLoad, err.Error())
	}
	if hdr.FormatVersion != FormatVersion {
		return errors.Wrapf(ErrLoad, "unknown format version %d (want %d)", hdr.FormatVersion, FormatVersion)
	}
	if hdr.GameTag != wantGameTag {
		return errors.Wrapf(ErrLoad, "model was saved for game %q, not %q", hdr.GameTag, wantGameTag)
	}
	var params []byte
	if err := dec.Decode(&params); err != nil {
		return errors.Wrap(ErrLoad, err.Error())
	}
	if err := m.GobDecode(params); err != nil {
		return errors.Wrap(ErrLoad, err.Error())
	}
	return nil
}
