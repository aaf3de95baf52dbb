package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	assert.Equal(t, "hello world", Text("  <b>hello</b>   world "))
	assert.Equal(t, "alert(1)", Text("&lt;script&gt;alert(1)&lt;/script&gt;"))
}

func TestStringSet(t *testing.T) {
	got := StringSet([]string{" CRM ", "crm", "", "Support plan", "support plan", "API"})
	assert.Equal(t, []string{"CRM", "Support plan", "API"}, got)
}
