package mol

import "testing"

func validEnv() Environment {
	return Environment{
		X: 10, Y: 10, Z: 10,
		Cutoff:         9,
		Temperature:    298.15,
		MaxTranslation: 0.5,
		MaxRotation:    15,
	}
}

func TestEnvironmentValidate(t *testing.T) {
	env := validEnv()
	if err := env.Validate(); err != nil {
		t.Fatalf("valid environment rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Environment)
	}{
		{"zero box x", func(e *Environment) { e.X = 0 }},
		{"negative box y", func(e *Environment) { e.Y = -3 }},
		{"zero box z", func(e *Environment) { e.Z = 0 }},
		{"zero cutoff", func(e *Environment) { e.Cutoff = 0 }},
		{"negative cutoff", func(e *Environment) { e.Cutoff = -1 }},
		{"zero temperature", func(e *Environment) { e.Temperature = 0 }},
		{"negative translation", func(e *Environment) { e.MaxTranslation = -0.1 }},
		{"negative rotation", func(e *Environment) { e.MaxRotation = -5 }},
		{"negative primary atom", func(e *Environment) { e.PrimaryAtom = -1 }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			env := validEnv()
			c.mutate(&env)
			if err := env.Validate(); err == nil {
				t.Error("expected a validation error, got nil")
			}
		})
	}
}
