package stats

import (
	"errors"
	"reflect"
	"testing"
)

func TestCategories(t *testing.T) {
	cats := Categories()

	want := []string{Passing, Rushing, Receiving, Turnovers, Kicking, Defense, Interceptions}
	if !reflect.DeepEqual(Keys(cats), want) {
		t.Errorf("expected %v, got %v", want, Keys(cats))
	}

	// Callers get a copy.
	cats[0].Columns[0].Name = "changed"
	if Categories()[0].Columns[0].Name != "ATT" {
		t.Error("Categories() should return a copy")
	}
}

func TestCategories_KickingColumnsDistinct(t *testing.T) {
	r := NewRegistry()
	kicking, _ := r.Get(Kicking)

	seen := map[string]bool{}
	for _, c := range kicking.Columns {
		if seen[c.Name] {
			t.Errorf("duplicate column %q", c.Name)
		}
		seen[c.Name] = true
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()

	t.Run("empty selects all", func(t *testing.T) {
		cats, err := r.Lookup(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cats) != 7 {
			t.Errorf("expected 7 categories, got %d", len(cats))
		}
	})

	t.Run("follows registry order", func(t *testing.T) {
		cats, err := r.Lookup([]string{"Kicking", "passing", "kicking"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(Keys(cats), []string{Passing, Kicking}) {
			t.Errorf("unexpected keys: %v", Keys(cats))
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := r.Lookup([]string{"punting"})
		if !errors.Is(err, ErrUnknownCategory) {
			t.Errorf("expected ErrUnknownCategory, got %v", err)
		}
	})
}

func TestRegistry_Extra(t *testing.T) {
	punting := Category{Key: "punting", Table: "PUNTING", Columns: numbers("NO", "YDS")}
	override := Category{Key: "rushing", Table: "RUSHING", Columns: numbers("ATT")}

	r := NewRegistry(punting, override)

	all := r.All()
	if len(all) != 8 {
		t.Fatalf("expected 8 categories, got %d", len(all))
	}
	if all[7].Key != "punting" {
		t.Errorf("expected extra appended, got %q", all[7].Key)
	}
	rushing, _ := r.Get("rushing")
	if len(rushing.Columns) != 1 {
		t.Errorf("expected override in place, got %v", rushing.Columns)
	}
	if all[1].Key != "rushing" {
		t.Errorf("expected override to keep position, got %q", all[1].Key)
	}
}
