package model_test

import (
	"testing"

	"workboard/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestRole_Allows(t *testing.T) {
	assert.True(t, model.RoleViewer.Allows(model.RoleViewer))
	assert.False(t, model.RoleViewer.Allows(model.RoleEditor))
	assert.True(t, model.RoleEditor.Allows(model.RoleViewer))
	assert.True(t, model.RoleEditor.Allows(model.RoleEditor))
	assert.False(t, model.Role("owner").Allows(model.RoleViewer))
	assert.False(t, model.RoleEditor.Allows(model.Role("")))
}
