package value

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Encode renders v as the canonical text form persisted in the `value`
// columns of §6.1's tables. The tombstone never reaches this function —
// callers store SQL NULL for it instead (see store.EncodeOrNull).
//
// The wire representation is a small JSON envelope {"k": <kind>, "v": <...>}
// rather than bare JSON, so that an Int(3) and a Float(3.0) — which JSON
// would otherwise render identically — decode back to distinct Kinds.
func Encode(v Value) (string, error) {
	if v.Kind == KindTombstone {
		return "", fmt.Errorf("value: cannot encode tombstone, use NULL")
	}
	env, err := toEnvelope(v)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("value: encode: %w", err)
	}
	return string(b), nil
}

// Decode parses text produced by Encode back into a Value. decode(encode(x))
// == x is guaranteed for every Value Encode accepts.
func Decode(s string) (Value, error) {
	var env envelope
	if err := json.Unmarshal([]byte(s), &env); err != nil {
		return Value{}, fmt.Errorf("value: decode: %w", err)
	}
	return fromEnvelope(env)
}

// envelope is the canonical wire shape: a kind discriminator plus a raw
// payload whose interpretation depends on the kind.
type envelope struct {
	K string          `json:"k"`
	V json.RawMessage `json:"v,omitempty"`
}

func toEnvelope(v Value) (envelope, error) {
	switch v.Kind {
	case KindInt:
		return envelope{K: "i", V: json.RawMessage(strconv.FormatInt(v.Int, 10))}, nil
	case KindFloat:
		return envelope{K: "f", V: json.RawMessage(formatFloat(v.Float))}, nil
	case KindBool:
		b, _ := json.Marshal(v.Bool)
		return envelope{K: "b", V: b}, nil
	case KindStr:
		b, _ := json.Marshal(v.Str)
		return envelope{K: "s", V: b}, nil
	case KindList:
		envs := make([]envelope, len(v.List))
		for i, item := range v.List {
			e, err := toEnvelope(item)
			if err != nil {
				return envelope{}, err
			}
			envs[i] = e
		}
		b, err := json.Marshal(envs)
		if err != nil {
			return envelope{}, fmt.Errorf("value: encode list: %w", err)
		}
		return envelope{K: "l", V: b}, nil
	case KindMap:
		out := make(map[string]envelope, len(v.Map))
		for _, k := range sortedMapKeys(v.Map) {
			e, err := toEnvelope(v.Map[k])
			if err != nil {
				return envelope{}, err
			}
			out[k] = e
		}
		b, err := json.Marshal(out)
		if err != nil {
			return envelope{}, fmt.Errorf("value: encode map: %w", err)
		}
		return envelope{K: "m", V: b}, nil
	default:
		return envelope{}, fmt.Errorf("value: encode: unsupported kind %v", v.Kind)
	}
}

func fromEnvelope(env envelope) (Value, error) {
	switch env.K {
	case "i":
		n, err := strconv.ParseInt(string(env.V), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("value: decode int: %w", err)
		}
		return Int(n), nil
	case "f":
		f, err := strconv.ParseFloat(string(env.V), 64)
		if err != nil {
			return Value{}, fmt.Errorf("value: decode float: %w", err)
		}
		return Float(f), nil
	case "b":
		var b bool
		if err := json.Unmarshal(env.V, &b); err != nil {
			return Value{}, fmt.Errorf("value: decode bool: %w", err)
		}
		return Bool(b), nil
	case "s":
		var s string
		if err := json.Unmarshal(env.V, &s); err != nil {
			return Value{}, fmt.Errorf("value: decode str: %w", err)
		}
		return Str(s), nil
	case "l":
		var envs []envelope
		if err := json.Unmarshal(env.V, &envs); err != nil {
			return Value{}, fmt.Errorf("value: decode list: %w", err)
		}
		items := make([]Value, len(envs))
		for i, e := range envs {
			v, err := fromEnvelope(e)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return List(items...), nil
	case "m":
		var envs map[string]envelope
		if err := json.Unmarshal(env.V, &envs); err != nil {
			return Value{}, fmt.Errorf("value: decode map: %w", err)
		}
		out := make(map[string]Value, len(envs))
		for k, e := range envs {
			v, err := fromEnvelope(e)
			if err != nil {
				return Value{}, err
			}
			out[k] = v
		}
		return Value{Kind: KindMap, Map: out}, nil
	default:
		return Value{}, fmt.Errorf("value: decode: unknown kind tag %q", env.K)
	}
}

// formatFloat uses the shortest round-trippable representation. It renders
// 3.0 as "3"; the distinction between 3 (int) and 3.0 (float) is carried
// across the boundary by the envelope's kind tag.
// NaN/Inf are outside the supported value domain (§6.2 only promises
// round-tripping for the supported scalar/container domain).
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
