// Package example assembles and parses tf.train.Example messages on the
// protobuf wire format directly, via protowire. The message shape is small
// and stable (Example > Features > map<string, Feature>, Feature holding a
// bytes, float or int64 list), so hand-rolled framing avoids a dependency on
// TensorFlow's generated bindings while staying byte-compatible with them.
package example

import (
	"fmt"
	"math"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/seqforge/triopileup/pkg/errors"
)

// Field numbers from tensorflow/core/example/example.proto and feature.proto.
const (
	exampleFeaturesField = 1

	featuresFeatureField = 1 // map<string, Feature>

	mapKeyField   = 1
	mapValueField = 2

	featureBytesListField = 1
	featureFloatListField = 2
	featureInt64ListField = 3

	listValueField = 1
)

// Feature is one decoded feature value. Exactly one of the slices is set.
type Feature struct {
	Bytes  [][]byte
	Floats []float32
	Ints   []int64
}

// Builder accumulates features and serializes them as one Example message.
// Features are emitted in sorted key order so output is deterministic.
type Builder struct {
	features map[string][]byte
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{features: make(map[string][]byte)}
}

// AddBytes sets key to a bytes_list feature with the given values.
func (b *Builder) AddBytes(key string, values ...[]byte) *Builder {
	var list []byte
	for _, v := range values {
		list = protowire.AppendTag(list, listValueField, protowire.BytesType)
		list = protowire.AppendBytes(list, v)
	}
	b.features[key] = appendSubmessage(nil, featureBytesListField, list)
	return b
}

// AddString sets key to a bytes_list feature holding one string.
func (b *Builder) AddString(key, value string) *Builder {
	return b.AddBytes(key, []byte(value))
}

// AddInts sets key to an int64_list feature with the given values.
func (b *Builder) AddInts(key string, values ...int64) *Builder {
	var list []byte
	if len(values) > 0 {
		var packed []byte
		for _, v := range values {
			packed = protowire.AppendVarint(packed, uint64(v))
		}
		list = appendSubmessage(list, listValueField, packed)
	}
	b.features[key] = appendSubmessage(nil, featureInt64ListField, list)
	return b
}

// AddFloats sets key to a float_list feature with the given values.
func (b *Builder) AddFloats(key string, values ...float32) *Builder {
	var list []byte
	if len(values) > 0 {
		var packed []byte
		for _, v := range values {
			packed = protowire.AppendFixed32(packed, math.Float32bits(v))
		}
		list = appendSubmessage(list, listValueField, packed)
	}
	b.features[key] = appendSubmessage(nil, featureFloatListField, list)
	return b
}

// Encode serializes the accumulated features as a tf.train.Example message.
func (b *Builder) Encode() []byte {
	keys := make([]string, 0, len(b.features))
	for k := range b.features {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var features []byte
	for _, k := range keys {
		var entry []byte
		entry = protowire.AppendTag(entry, mapKeyField, protowire.BytesType)
		entry = protowire.AppendString(entry, k)
		entry = appendSubmessage(entry, mapValueField, b.features[k])
		features = appendSubmessage(features, featuresFeatureField, entry)
	}
	return appendSubmessage(nil, exampleFeaturesField, features)
}

func appendSubmessage(buf []byte, field protowire.Number, msg []byte) []byte {
	buf = protowire.AppendTag(buf, field, protowire.BytesType)
	return protowire.AppendBytes(buf, msg)
}

// Decode parses a serialized Example back into its feature map. Unknown
// fields are skipped; scalar lists are expected in packed encoding, which is what
// the builder and TensorFlow both emit.
func Decode(data []byte) (map[string]Feature, error) {
	features := make(map[string]Feature)

	err := walkFields(data, func(num protowire.Number, payload []byte) error {
		if num != exampleFeaturesField {
			return nil
		}
		return walkFields(payload, func(num protowire.Number, entry []byte) error {
			if num != featuresFeatureField {
				return nil
			}
			key, feat, err := decodeEntry(entry)
			if err != nil {
				return err
			}
			features[key] = feat
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return features, nil
}

func decodeEntry(entry []byte) (string, Feature, error) {
	var key string
	var feat Feature
	err := walkFields(entry, func(num protowire.Number, payload []byte) error {
		switch num {
		case mapKeyField:
			key = string(payload)
		case mapValueField:
			return walkFields(payload, func(num protowire.Number, list []byte) error {
				switch num {
				case featureBytesListField:
					return walkFields(list, func(num protowire.Number, v []byte) error {
						if num == listValueField {
							feat.Bytes = append(feat.Bytes, v)
						}
						return nil
					})
				case featureInt64ListField:
					return decodeInt64List(list, &feat)
				case featureFloatListField:
					return decodeFloatList(list, &feat)
				}
				return nil
			})
		}
		return nil
	})
	return key, feat, err
}

// walkFields visits every length-delimited field of msg, skipping fields of
// other wire types.
func walkFields(msg []byte, visit func(num protowire.Number, payload []byte) error) error {
	for len(msg) > 0 {
		num, typ, n := protowire.ConsumeTag(msg)
		if n < 0 {
			return fmt.Errorf("%w: bad tag", errors.ErrInvalidExample)
		}
		msg = msg[n:]
		if typ == protowire.BytesType {
			payload, n := protowire.ConsumeBytes(msg)
			if n < 0 {
				return fmt.Errorf("%w: truncated field %d", errors.ErrInvalidExample, num)
			}
			if err := visit(num, payload); err != nil {
				return err
			}
			msg = msg[n:]
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, msg)
		if n < 0 {
			return fmt.Errorf("%w: bad field %d", errors.ErrInvalidExample, num)
		}
		msg = msg[n:]
	}
	return nil
}

func decodeInt64List(list []byte, feat *Feature) error {
	return walkFields(list, func(num protowire.Number, packed []byte) error {
		if num != listValueField {
			return nil
		}
		for len(packed) > 0 {
			v, n := protowire.ConsumeVarint(packed)
			if n < 0 {
				return fmt.Errorf("%w: bad int64 list", errors.ErrInvalidExample)
			}
			feat.Ints = append(feat.Ints, int64(v))
			packed = packed[n:]
		}
		return nil
	})
}

func decodeFloatList(list []byte, feat *Feature) error {
	return walkFields(list, func(num protowire.Number, packed []byte) error {
		if num != listValueField {
			return nil
		}
		for len(packed) > 0 {
			v, n := protowire.ConsumeFixed32(packed)
			if n < 0 {
				return fmt.Errorf("%w: bad float list", errors.ErrInvalidExample)
			}
			feat.Floats = append(feat.Floats, math.Float32frombits(v))
			packed = packed[n:]
		}
		return nil
	})
}
