package engine

import (
	"errors"
	"testing"
)

func TestBuildRegistry_TaskEntry(t *testing.T) {
	reg, err := BuildRegistry(map[string]map[string]any{
		"test": {
			"command":     "pytest",
			"args":        []any{"-q", "tests/"},
			"env":         map[string]any{"PYTHONDONTWRITEBYTECODE": "1"},
			"working_dir": "src",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	def, ok := reg.Get("test")
	if !ok {
		t.Fatal("expected task to be registered")
	}
	task, ok := AsTask(def)
	if !ok {
		t.Fatalf("expected *Task, got %T", def)
	}
	if task.Command != "pytest" {
		t.Fatalf("expected command pytest, got %q", task.Command)
	}
	if len(task.Args) != 2 || task.Args[0] != "-q" || task.Args[1] != "tests/" {
		t.Fatalf("unexpected args: %v", task.Args)
	}
	if task.Env["PYTHONDONTWRITEBYTECODE"] != "1" {
		t.Fatalf("unexpected env: %v", task.Env)
	}
	if task.WorkingDir != "src" {
		t.Fatalf("unexpected working_dir: %q", task.WorkingDir)
	}
	if !task.UseVenv {
		t.Fatal("use_venv must default to true")
	}
}

func TestBuildRegistry_UseVenvExplicitFalse(t *testing.T) {
	reg, err := BuildRegistry(map[string]map[string]any{
		"docker-up": {"command": "docker", "args": []any{"compose", "up", "-d"}, "use_venv": false},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def, _ := reg.Get("docker-up")
	task, _ := AsTask(def)
	if task.UseVenv {
		t.Fatal("expected use_venv false")
	}
}

func TestBuildRegistry_PipelineEntry(t *testing.T) {
	reg, err := BuildRegistry(map[string]map[string]any{
		"lint": {"command": "ruff"},
		"test": {"command": "pytest"},
		"ci": {"pipeline": []any{
			"lint",
			"test",
			map[string]any{"name": "smoke", "command": "python", "args": []any{"-m", "smoke"}},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	def, _ := reg.Get("ci")
	pipeline, ok := AsPipeline(def)
	if !ok {
		t.Fatalf("expected *Pipeline, got %T", def)
	}
	if len(pipeline.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(pipeline.Steps))
	}
	if pipeline.Steps[0].Ref != "lint" || pipeline.Steps[1].Ref != "test" {
		t.Fatalf("unexpected references: %+v", pipeline.Steps[:2])
	}
	inline := pipeline.Steps[2].Task
	if inline == nil || inline.Name != "smoke" || inline.Command != "python" {
		t.Fatalf("unexpected inline step: %+v", inline)
	}
}

func TestBuildRegistry_InlineStepDefaultName(t *testing.T) {
	reg, err := BuildRegistry(map[string]map[string]any{
		"ci": {"pipeline": []any{map[string]any{"command": "true"}}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def, _ := reg.Get("ci")
	pipeline, _ := AsPipeline(def)
	if got := pipeline.Steps[0].Task.Name; got != "ci[0]" {
		t.Fatalf("expected synthesized name ci[0], got %q", got)
	}
}

func TestBuildRegistry_InvalidEntries(t *testing.T) {
	t.Run("neither command nor pipeline", func(t *testing.T) {
		_, err := BuildRegistry(map[string]map[string]any{"broken": {"args": []any{"-q"}}})
		if !errors.Is(err, ErrInvalidTask) {
			t.Fatalf("expected ErrInvalidTask, got %v", err)
		}
		mustContain(t, err.Error(), "phase=config", "path=broken", "command or pipeline")
	})

	t.Run("both command and pipeline", func(t *testing.T) {
		_, err := BuildRegistry(map[string]map[string]any{
			"broken": {"command": "true", "pipeline": []any{"x"}},
		})
		if !errors.Is(err, ErrInvalidTask) {
			t.Fatalf("expected ErrInvalidTask, got %v", err)
		}
		mustContain(t, err.Error(), "cannot combine")
	})

	t.Run("empty command", func(t *testing.T) {
		_, err := BuildRegistry(map[string]map[string]any{"broken": {"command": ""}})
		if !errors.Is(err, ErrInvalidTask) {
			t.Fatalf("expected ErrInvalidTask, got %v", err)
		}
		mustContain(t, err.Error(), "command must not be empty")
	})

	t.Run("non-string arg", func(t *testing.T) {
		_, err := BuildRegistry(map[string]map[string]any{
			"broken": {"command": "x", "args": []any{"ok", 3}},
		})
		if !errors.Is(err, ErrInvalidTask) {
			t.Fatalf("expected ErrInvalidTask, got %v", err)
		}
		mustContain(t, err.Error(), "args[1]")
	})

	t.Run("non-list pipeline", func(t *testing.T) {
		_, err := BuildRegistry(map[string]map[string]any{"broken": {"pipeline": "lint"}})
		if !errors.Is(err, ErrInvalidTask) {
			t.Fatalf("expected ErrInvalidTask, got %v", err)
		}
	})

	t.Run("invalid step type", func(t *testing.T) {
		_, err := BuildRegistry(map[string]map[string]any{"broken": {"pipeline": []any{42}}})
		if !errors.Is(err, ErrInvalidTask) {
			t.Fatalf("expected ErrInvalidTask, got %v", err)
		}
		mustContain(t, err.Error(), "path=broken[0]")
	})
}

func TestRegistry_SingleNamespace(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(&Task{Name: "ci", Command: "true"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := reg.Register(&Pipeline{Name: "ci"})
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestRegistry_NamesSorted(t *testing.T) {
	reg := NewRegistry()
	mustRegister(t, reg,
		&Task{Name: "zeta", Command: "true"},
		&Task{Name: "alpha", Command: "true"},
		&Task{Name: "mid", Command: "true"},
	)
	names := reg.Names()
	want := []string{"alpha", "mid", "zeta"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected sorted names %v, got %v", want, names)
		}
	}
}
