package app

import (
	"testing"

	"shift_approval_bot/internal/domain/employee"

	"github.com/stretchr/testify/assert"
)

func TestSanitizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "local ten digit gets country code", input: "0501234567", want: "380501234567"},
		{name: "plus prefix stripped", input: "+380501234567", want: "380501234567"},
		{name: "already canonical", input: "380501234567", want: "380501234567"},
		{name: "formatting characters removed", input: "+38 (050) 123-45-67", want: "380501234567"},
		{name: "letters interspersed", input: "050abc1234567", want: "380501234567"},
		{name: "no digits", input: "call me", want: ""},
		{name: "empty", input: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizePhone(tt.input))
		})
	}
}

func TestAuthRegistry(t *testing.T) {
	registry := NewAuthRegistry()

	assert.Nil(t, registry.Current(100))

	first := &employee.Employee{Name: "Олена", Role: employee.RoleStaff}
	registry.Login(100, first)
	assert.Equal(t, first, registry.Current(100))

	// A second login on the same session overwrites the mapping.
	second := &employee.Employee{Name: "Іван", Role: employee.RoleManager}
	registry.Login(100, second)
	assert.Equal(t, second, registry.Current(100))

	// Other sessions are unaffected.
	assert.Nil(t, registry.Current(200))
}
