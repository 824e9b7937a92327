package attribute

import (
	"encoding/json"
	"fmt"

	"github.com/hostguard/compliance/internal/privilege"
)

// wireAttribute is the discriminated-union encoding an Attribute takes on
// the wire: exactly one of the kind-specific fields is populated, named by
// Kind.
type wireAttribute struct {
	Privilege  privilege.Privilege `json:"privilege" yaml:"privilege"`
	Kind       string              `json:"kind" yaml:"kind"`
	Apt        *Apt                `json:"apt,omitempty" yaml:"apt,omitempty"`
	YumDnf     *YumDnf             `json:"yum_dnf,omitempty" yaml:"yum_dnf,omitempty"`
	Pacman     *Pacman             `json:"pacman,omitempty" yaml:"pacman,omitempty"`
	Service    *Service            `json:"service,omitempty" yaml:"service,omitempty"`
	LineInFile *LineInFile         `json:"line_in_file,omitempty" yaml:"line_in_file,omitempty"`
	Command    *Command            `json:"command,omitempty" yaml:"command,omitempty"`
	Ping       *struct{}           `json:"ping,omitempty" yaml:"ping,omitempty"`
	Debug      *Debug              `json:"debug,omitempty" yaml:"debug,omitempty"`
}

func (a Attribute) toWire() (wireAttribute, error) {
	w := wireAttribute{Privilege: a.Privilege}
	switch d := a.Detail.(type) {
	case Apt:
		w.Kind, w.Apt = "apt", &d
	case YumDnf:
		w.Kind, w.YumDnf = "yum_dnf", &d
	case Pacman:
		w.Kind, w.Pacman = "pacman", &d
	case Service:
		w.Kind, w.Service = "service", &d
	case LineInFile:
		w.Kind, w.LineInFile = "line_in_file", &d
	case Command:
		w.Kind, w.Command = "command", &d
	case Ping:
		w.Kind, w.Ping = "ping", &struct{}{}
	case Debug:
		w.Kind, w.Debug = "debug", &d
	default:
		return wireAttribute{}, fmt.Errorf("attribute: unknown detail type %T", a.Detail)
	}
	return w, nil
}

func (w wireAttribute) toAttribute() (Attribute, error) {
	a := Attribute{Privilege: w.Privilege}
	switch w.Kind {
	case "apt":
		if w.Apt == nil {
			return Attribute{}, fmt.Errorf("attribute: kind %q missing payload", w.Kind)
		}
		a.Detail = *w.Apt
	case "yum_dnf":
		if w.YumDnf == nil {
			return Attribute{}, fmt.Errorf("attribute: kind %q missing payload", w.Kind)
		}
		a.Detail = *w.YumDnf
	case "pacman":
		if w.Pacman == nil {
			return Attribute{}, fmt.Errorf("attribute: kind %q missing payload", w.Kind)
		}
		a.Detail = *w.Pacman
	case "service":
		if w.Service == nil {
			return Attribute{}, fmt.Errorf("attribute: kind %q missing payload", w.Kind)
		}
		a.Detail = *w.Service
	case "line_in_file":
		if w.LineInFile == nil {
			return Attribute{}, fmt.Errorf("attribute: kind %q missing payload", w.Kind)
		}
		a.Detail = *w.LineInFile
	case "command":
		if w.Command == nil {
			return Attribute{}, fmt.Errorf("attribute: kind %q missing payload", w.Kind)
		}
		a.Detail = *w.Command
	case "ping":
		a.Detail = Ping{}
	case "debug":
		if w.Debug == nil {
			return Attribute{}, fmt.Errorf("attribute: kind %q missing payload", w.Kind)
		}
		a.Detail = *w.Debug
	default:
		return Attribute{}, fmt.Errorf("attribute: unknown kind %q", w.Kind)
	}
	return a, nil
}

func (a Attribute) MarshalJSON() ([]byte, error) {
	w, err := a.toWire()
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func (a *Attribute) UnmarshalJSON(data []byte) error {
	var w wireAttribute
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	decoded, err := w.toAttribute()
	if err != nil {
		return err
	}
	*a = decoded
	return nil
}

// MarshalYAML implements yaml.Marshaler so Attribute round-trips through
// expected-state documents the same way it does through Task JSON.
func (a Attribute) MarshalYAML() (interface{}, error) {
	return a.toWire()
}

func (a *Attribute) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var w wireAttribute
	if err := unmarshal(&w); err != nil {
		return err
	}
	decoded, err := w.toAttribute()
	if err != nil {
		return err
	}
	*a = decoded
	return nil
}
