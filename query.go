package delphi

import (
	"fmt"

	"github.com/iov-one/delphi/errors"
)

// KeyQueryMod returns the value stored under the exact key.
const KeyQueryMod = ""

// Model is one key and value pair returned by a query.
type Model struct {
	Key   []byte
	Value []byte
}

func Pair(key, value []byte) Model {
	return Model{Key: key, Value: value}
}

// QueryHandler answers the queries of one path, such as the claims or
// the polls of a claim. mod selects how data is matched against the keys.
type QueryHandler interface {
	Query(db ReadOnlyKVStore, mod string, data []byte) ([]Model, error)
}

// QueryRegister adds the query paths of an extension.
type QueryRegister func(QueryRouter)

// QueryRouter dispatches queries by path.
type QueryRouter struct {
	routes map[string]QueryHandler
}

func NewQueryRouter() QueryRouter {
	return QueryRouter{routes: make(map[string]QueryHandler)}
}

func (r QueryRouter) RegisterAll(regs ...QueryRegister) {
	for _, reg := range regs {
		reg(r)
	}
}

// Register panics if the path already has a handler.
func (r QueryRouter) Register(path string, h QueryHandler) {
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("query path %q registered twice", path))
	}
	r.routes[path] = h
}

// Handler is nil for an unknown path.
func (r QueryRouter) Handler(path string) QueryHandler {
	return r.routes[path]
}

// ResultSet is the wire form of a query response. Keys and values of the
// returned models are serialized as two separate result sets of equal size.
type ResultSet struct {
	Results [][]byte
}

// Marshal serializes the result set with the shared codec.
func (r *ResultSet) Marshal() ([]byte, error) {
	return Marshal(r)
}

// Unmarshal loads the result set from its binary form.
func (r *ResultSet) Unmarshal(raw []byte) error {
	return Unmarshal(raw, r)
}

// ResultsFromKeys collects the keys of models.
func ResultsFromKeys(models []Model) *ResultSet {
	return collect(models, func(m Model) []byte { return m.Key })
}

// ResultsFromValues collects the values of models.
func ResultsFromValues(models []Model) *ResultSet {
	return collect(models, func(m Model) []byte { return m.Value })
}

func collect(models []Model, part func(Model) []byte) *ResultSet {
	res := make([][]byte, len(models))
	for i, m := range models {
		res[i] = part(m)
	}
	return &ResultSet{Results: res}
}

// JoinResults pairs the sets produced by ResultsFromKeys and
// ResultsFromValues back into models.
func JoinResults(keys, values *ResultSet) ([]Model, error) {
	if len(keys.Results) != len(values.Results) {
		return nil, errors.Wrapf(errors.ErrState, "result set size mismatch: %d keys, %d values",
			len(keys.Results), len(values.Results))
	}
	models := make([]Model, len(keys.Results))
	for i, k := range keys.Results {
		models[i] = Pair(k, values.Results[i])
	}
	return models, nil
}
