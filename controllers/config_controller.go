package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/focusstreak/streak"
	"github.com/cppla/focusstreak/utils"
)

// ConfigController serves the settings a client shell needs before its first check-in.
type ConfigController struct {
	defaultGoal int
}

func NewConfigController(defaultGoal int) *ConfigController {
	if defaultGoal <= 0 {
		defaultGoal = streak.DefaultGoal
	}
	return &ConfigController{defaultGoal: defaultGoal}
}

// GetConfig returns the default goal and the goal choices offered to users.
func (c *ConfigController) GetConfig(ctx *gin.Context) {
	utils.Success(ctx, gin.H{
		"defaultGoal": c.defaultGoal,
		"goalOptions": streak.GoalOptions,
	})
}
