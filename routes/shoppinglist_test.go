package routes

import (
	"net/http"
	"testing"

	"mealplan-server/models"
	"mealplan-server/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shoppingListResponse struct {
	PlanID      uint                         `json:"planID"`
	Ingredients []services.ShoppingListEntry `json:"ingredients"`
}

func TestShoppingListAggregation(t *testing.T) {
	db := setupTestDB(t)
	app := buildTestApp(t)
	user := seedUser(t, db, "cook@example.com", "user")
	token := signToken(t, user)
	plan, monday := seedPlanWithDay(t, db, user)

	tuesday := models.MealPlanDay{PlanID: plan.ID, UserID: user.ID, DayName: "Tuesday", OrderIndex: 1, IsActive: true}
	require.NoError(t, db.Create(&tuesday).Error)

	omelette := models.Meal{UserID: user.ID, Name: "Omelette", Ingredients: "2 eggs\nFlour"}
	pancakes := models.Meal{UserID: user.ID, Name: "Pancakes", Ingredients: "2 Eggs"}
	require.NoError(t, db.Create(&omelette).Error)
	require.NoError(t, db.Create(&pancakes).Error)
	require.NoError(t, db.Create(&models.DayMeal{DayID: monday.ID, MealID: omelette.ID, OrderIndex: 0}).Error)
	require.NoError(t, db.Create(&models.DayMeal{DayID: tuesday.ID, MealID: pancakes.ID, OrderIndex: 0}).Error)

	resp := doJSON(t, app, http.MethodGet, "/api/plans/"+uintStr(plan.ID)+"/shopping-list", token, nil)
	mustStatus(t, resp, http.StatusOK)

	var list shoppingListResponse
	decodeBody(t, resp, &list)

	require.Len(t, list.Ingredients, 2)
	byKey := map[string]services.ShoppingListEntry{}
	for _, entry := range list.Ingredients {
		byKey[entry.Key] = entry
	}

	eggs := byKey["2 eggs"]
	assert.Equal(t, []string{"Monday — Omelette", "Tuesday — Pancakes"}, eggs.Sources)
	assert.Contains(t, byKey, "flour")
}

func TestIngredientToggleSurvivesRawTextVariants(t *testing.T) {
	db := setupTestDB(t)
	app := buildTestApp(t)
	user := seedUser(t, db, "cook@example.com", "user")
	token := signToken(t, user)
	plan, day := seedPlanWithDay(t, db, user)

	meal := models.Meal{UserID: user.ID, Name: "Omelette", Ingredients: "2 Eggs"}
	require.NoError(t, db.Create(&meal).Error)
	require.NoError(t, db.Create(&models.DayMeal{DayID: day.ID, MealID: meal.ID, OrderIndex: 0}).Error)

	// toggle with a differently-cased spelling of the same item
	resp := doJSON(t, app, http.MethodPut, "/api/plans/"+uintStr(plan.ID)+"/ingredients", token, map[string]interface{}{"ingredient": "  2 eggs ", "hasItem": true})
	mustStatus(t, resp, http.StatusOK)

	resp = doJSON(t, app, http.MethodGet, "/api/plans/"+uintStr(plan.ID)+"/shopping-list", token, nil)
	mustStatus(t, resp, http.StatusOK)

	var list shoppingListResponse
	decodeBody(t, resp, &list)
	require.Len(t, list.Ingredients, 1)
	assert.True(t, list.Ingredients[0].HasItem)

	// toggling the same key twice is an update, not a second row
	resp = doJSON(t, app, http.MethodPut, "/api/plans/"+uintStr(plan.ID)+"/ingredients", token, map[string]interface{}{"ingredient": "2 EGGS", "hasItem": false})
	mustStatus(t, resp, http.StatusOK)

	var rows []models.PlanIngredientStatus
	require.NoError(t, db.Where("plan_id = ?", plan.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].HasItem)
}

func TestResetIngredientStatus(t *testing.T) {
	db := setupTestDB(t)
	app := buildTestApp(t)
	user := seedUser(t, db, "cook@example.com", "user")
	token := signToken(t, user)
	plan, _ := seedPlanWithDay(t, db, user)

	require.NoError(t, db.Create(&models.PlanIngredientStatus{PlanID: plan.ID, Ingredient: "2 eggs", HasItem: true}).Error)
	require.NoError(t, db.Create(&models.PlanIngredientStatus{PlanID: plan.ID, Ingredient: "flour", HasItem: true}).Error)

	mustStatus(t, doJSON(t, app, http.MethodDelete, "/api/plans/"+uintStr(plan.ID)+"/ingredients", token, nil), http.StatusOK)

	var count int64
	db.Model(&models.PlanIngredientStatus{}).Where("plan_id = ?", plan.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestShoppingListPrivatePlanHiddenFromAnonymous(t *testing.T) {
	db := setupTestDB(t)
	app := buildTestApp(t)
	user := seedUser(t, db, "cook@example.com", "user")
	plan, _ := seedPlanWithDay(t, db, user)

	resp := doJSON(t, app, http.MethodGet, "/api/plans/"+uintStr(plan.ID)+"/shopping-list", "", nil)
	mustStatus(t, resp, http.StatusNotFound)
}
