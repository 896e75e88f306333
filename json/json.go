// Wrap json library to control encoding.

package json

import (
	"sync"

	"github.com/Velocidex/json"
	"github.com/Velocidex/ordereddict"
)

var (
	mu       sync.Mutex
	handlers = []*encoderHandler{}
)

type encoderHandler struct {
	sample interface{}
	cb     json.EncoderCallback
}

// Callers can register their custom encoders through this
// function. Should be done once from an init() function.
func RegisterCustomEncoder(sample interface{}, cb json.EncoderCallback) {
	mu.Lock()
	defer mu.Unlock()

	handlers = append(handlers, &encoderHandler{sample, cb})
}

func NewEncOpts() *json.EncOpts {
	mu.Lock()
	defer mu.Unlock()

	opts := json.NewEncOpts()
	for _, h := range handlers {
		opts.WithCallback(h.sample, h.cb)
	}
	return opts
}

// Encode ordered dicts preserving key order. Events are serialized
// through this so sink files keep columns in a stable order.
func MarshalJSONDict(v interface{}, opts *json.EncOpts) ([]byte, error) {
	self, ok := v.(*ordereddict.Dict)
	if !ok {
		return nil, json.EncoderCallbackSkip
	}

	result := "{"
	for _, k := range self.Keys() {

		// add key
		kEscaped, err := json.MarshalWithOptions(k, opts)
		if err != nil {
			continue
		}

		result += string(kEscaped) + ":"

		// add value
		v, ok := self.Get(k)
		if !ok {
			v = "null"
		}

		vBytes, err := json.MarshalWithOptions(v, opts)
		if err == nil {
			result += string(vBytes) + ","
		} else {
			result += "null,"
		}
	}
	if len(self.Keys()) > 0 {
		result = result[0 : len(result)-1]
	}
	result = result + "}"
	return []byte(result), nil
}

func init() {
	RegisterCustomEncoder(ordereddict.NewDict(), MarshalJSONDict)
}
