package implementors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_TargetTypeID(t *testing.T) {
	assert.Equal(t, "", Record{}.TargetTypeID())
	assert.Equal(t, "a::B", Record{Types: []string{"a::B", "a::C"}}.TargetTypeID())
}

func TestImplementors_Merge(t *testing.T) {
	a := Implementors{"T": {{Text: "1", Types: []string{"x"}}}}
	b := Implementors{
		"T": {{Text: "2", Types: []string{"y"}}},
		"U": {{Text: "3", Types: []string{"z"}}},
	}

	a.Merge(b)
	assert.Equal(t, 3, a.Count())
	assert.Equal(t, []string{"T", "U"}, a.Capabilities())
	assert.Equal(t, "1", a["T"][0].Text)
	assert.Equal(t, "2", a["T"][1].Text)

	b["T"][0].Types[0] = "changed"
	assert.Equal(t, "y", a["T"][1].Types[0], "merge must copy records")
}

func TestFragment_Implementors(t *testing.T) {
	f := NewFragment("crate").
		Add("T", Record{Text: "a", Types: []string{"x"}}).
		Add("T", Record{Text: "b", Types: []string{"y"}})

	got := f.Implementors()
	assert.Equal(t, []string{"T", "T"}, f.Capabilities())
	assert.Len(t, got["T"], 2)
	assert.Equal(t, "crate", got["T"][1].Module)
}
