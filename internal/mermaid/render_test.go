package mermaid

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erdgen/internal/jpa"
)

var update = flag.Bool("update", false, "update golden files")

func TestRender_Empty(t *testing.T) {
	assert.Equal(t, "erDiagram\n", Render(nil))
	assert.Equal(t, "erDiagram\n", Render([]*jpa.Entity{nil}))
}

func TestRender_CartCustomer(t *testing.T) {
	cart := jpa.Extract(`
		@Entity
		public class Cart {
			@OneToMany
			private List<CartItem> cartItems;
			private Double cartTotal;
			@OneToOne
			private Customer customer;
		}`, nil)
	cartItem := jpa.Extract(`
		@Entity
		public class CartItem {
			@ManyToOne
			private Cart cart;
			private String name;
		}`, nil)
	customer := jpa.Extract(`
		@Entity
		public class Customer {
			private String username;
			@OneToOne
			private Cart cart;
		}`, nil)

	got := Render([]*jpa.Entity{cart, cartItem, customer})
	want := "erDiagram\n" +
		"  CART {\n    List_CartItem cartItems\n    Double cartTotal\n    Customer customer\n  }\n\n" +
		"  CARTITEM {\n    Cart cart\n    String name\n  }\n\n" +
		"  CUSTOMER {\n    String username\n    Cart cart\n  }\n\n" +
		"  CART ||--o{ CARTITEM : \"\"\n" +
		"  CART ||--|| CUSTOMER : \"\"\n"
	assert.Equal(t, want, got)
}

func TestRender_ReciprocalCollapse(t *testing.T) {
	cases := []struct {
		name  string
		a, b  jpa.RelationKind
		lines []string
	}{
		{"one to one", jpa.OneToOne, jpa.OneToOne, []string{"  A ||--|| B : \"\""}},
		{"many to many", jpa.ManyToMany, jpa.ManyToMany, []string{"  A }|--|{ B : \"\""}},
		{"cross kind", jpa.ManyToOne, jpa.OneToMany, []string{"  A }o--|| B : \"\""}},
		{"distinct kinds", jpa.OneToOne, jpa.ManyToMany, []string{"  A ||--|| B : \"\"", "  B }|--|{ A : \"\""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := &jpa.Entity{Name: "A", Relations: []jpa.Relation{{Kind: tc.a, Target: "B"}}}
			b := &jpa.Entity{Name: "B", Relations: []jpa.Relation{{Kind: tc.b, Target: "A"}}}
			assert.Equal(t, tc.lines, relationLines(Render([]*jpa.Entity{a, b})))
		})
	}
}

func TestRender_ManyToMany(t *testing.T) {
	user := jpa.Extract(`
		@Entity
		public class User {
			private String username;
			private String email;
			@ManyToMany
			private List<Role> roles;
		}`, nil)
	role := jpa.Extract(`
		@Entity
		public class Role {
			private String name;
			@ManyToMany
			private List<User> users;
		}`, nil)

	got := Render([]*jpa.Entity{user, role})
	assert.Regexp(t, regexp.MustCompile(`USER \{\s+String username\s+String email\s+List_Role roles\s+\}`), got)
	assert.Regexp(t, regexp.MustCompile(`ROLE \{\s+String name\s+List_User users\s+\}`), got)
	assert.Equal(t, []string{`  USER }|--|{ ROLE : ""`}, relationLines(got))
}

func TestRender_UnresolvedTargetAndCase(t *testing.T) {
	foo := &jpa.Entity{
		Name:      "Foo",
		Fields:    []jpa.Field{{Name: "bar", Type: "BarEntity"}, {Name: "when", Type: "java.util.Date"}},
		Relations: []jpa.Relation{{Kind: jpa.ManyToOne, Target: "barEntity", Field: "bar"}},
	}
	got := Render([]*jpa.Entity{foo})
	assert.Contains(t, got, "    java_util_Date when\n")
	assert.Equal(t, []string{`  FOO }o--|| BARENTITY : ""`}, relationLines(got))
}

func TestRender_Labels(t *testing.T) {
	e := &jpa.Entity{
		Name:      "Order",
		Relations: []jpa.Relation{{Kind: jpa.OneToMany, Target: "LINE", Field: "lines"}},
	}
	assert.Equal(t, []string{`  ORDER ||--o{ LINE : "lines"`},
		relationLines(RenderWith([]*jpa.Entity{e}, Options{Label: LabelField})))
	assert.Equal(t, []string{`  ORDER ||--o{ LINE : "one to many"`},
		relationLines(RenderWith([]*jpa.Entity{e}, Options{Label: LabelKind})))

	l, ok := ParseLabel("Field")
	assert.True(t, ok)
	assert.Equal(t, LabelField, l)
	_, ok = ParseLabel("bogus")
	assert.False(t, ok)
}

func TestSanitizeType(t *testing.T) {
	for _, typ := range []string{"String", "Long", "byte[]", "List_CartItem", "Set_Role", "Map_Address", "CreditCard"} {
		assert.Equal(t, typ, sanitizeType(typ), typ)
	}
	assert.Equal(t, "java_util_Date", sanitizeType("java.util.Date"))
	assert.Equal(t, "Optional_B_", sanitizeType("Optional<B>"))
	assert.Equal(t, "unknown", sanitizeType(""))
}

func TestRelationKey(t *testing.T) {
	assert.Equal(t, RelationKey("a", "b", jpa.OneToMany), RelationKey("B", "A", jpa.ManyToOne))
	assert.NotEqual(t, RelationKey("A", "B", jpa.OneToOne), RelationKey("A", "B", jpa.ManyToMany))
	assert.Equal(t, "A<->OneToOne<->B", RelationKey("B", "A", jpa.OneToOne))
}

func TestRender_ShopGolden(t *testing.T) {
	corpus, err := jpa.LoadCorpus(context.Background(), filepath.Join("..", "jpa", "testdata", "shop"))
	require.NoError(t, err)
	got := Render(jpa.ExtractAll(corpus, true))

	goldenPath := filepath.Join("testdata", "shop.mmd.golden")
	if *update {
		require.NoError(t, os.WriteFile(goldenPath, []byte(got), 0o644))
	}
	want, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	if diff := cmp.Diff(string(want), got); diff != "" {
		t.Errorf("diagram mismatch (-want +got):\n%s", diff)
	}

	// повторный рендер даёт тот же текст
	assert.Equal(t, got, Render(jpa.ExtractAll(corpus, true)))
}

func relationLines(diagram string) []string {
	var out []string
	for _, l := range strings.Split(diagram, "\n") {
		if strings.Contains(l, "--") {
			out = append(out, l)
		}
	}
	return out
}
