package bus

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/viant/diskor/model/partitioning"
	"github.com/viant/structology/conv"
)

var converter = newConverter()

func newConverter() *conv.Converter {
	options := conv.DefaultOptions()
	options.IgnoreUnmapped = true
	return conv.NewConverter(options)
}

// decodeRequest builds the request of method from an a{sv} dictionary
func decodeRequest(method partitioning.Method, values map[string]dbus.Variant) (partitioning.Request, error) {
	request, err := partitioning.NewRequest(method)
	if err != nil {
		return nil, err
	}
	if err = converter.Convert(unwrap(values), request); err != nil {
		return nil, fmt.Errorf("%w: %v", partitioning.ErrInvalidRequest, err)
	}
	return request, nil
}

// unwrap replaces variants with their values, recursively
func unwrap(value interface{}) interface{} {
	switch actual := value.(type) {
	case dbus.Variant:
		return unwrap(actual.Value())
	case map[string]dbus.Variant:
		ret := make(map[string]interface{}, len(actual))
		for k, v := range actual {
			ret[k] = unwrap(v)
		}
		return ret
	case map[string]interface{}:
		ret := make(map[string]interface{}, len(actual))
		for k, v := range actual {
			ret[k] = unwrap(v)
		}
		return ret
	case []map[string]dbus.Variant:
		ret := make([]interface{}, len(actual))
		for i, v := range actual {
			ret[i] = unwrap(v)
		}
		return ret
	case []dbus.Variant:
		ret := make([]interface{}, len(actual))
		for i, v := range actual {
			ret[i] = unwrap(v)
		}
		return ret
	case []interface{}:
		ret := make([]interface{}, len(actual))
		for i, v := range actual {
			ret[i] = unwrap(v)
		}
		return ret
	}
	return value
}

// encode converts a JSON tagged value into an a{sv} dictionary
func encode(value interface{}) (map[string]dbus.Variant, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	generic := map[string]interface{}{}
	if err = decoder.Decode(&generic); err != nil {
		return nil, err
	}
	return wrapMap(generic), nil
}

func wrapMap(values map[string]interface{}) map[string]dbus.Variant {
	ret := make(map[string]dbus.Variant, len(values))
	for k, v := range values {
		if v == nil {
			continue
		}
		ret[k] = dbus.MakeVariant(wrap(v))
	}
	return ret
}

func wrap(value interface{}) interface{} {
	switch actual := value.(type) {
	case map[string]interface{}:
		return wrapMap(actual)
	case []interface{}:
		ret := make([]dbus.Variant, 0, len(actual))
		for _, v := range actual {
			if v != nil {
				ret = append(ret, dbus.MakeVariant(wrap(v)))
			}
		}
		return ret
	case json.Number:
		if i, err := actual.Int64(); err == nil {
			return i
		}
		f, _ := actual.Float64()
		return f
	}
	return value
}
