package services

import (
	"testing"
	"time"

	"mealplan-server/models"
	"mealplan-server/storage"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Meal{},
		&models.MealPlan{},
		&models.MealPlanDay{},
		&models.DayMeal{},
		&models.PlanShare{},
		&models.PlanIngredientStatus{},
		&models.UserPreferences{},
		&models.AppSetting{},
		&models.AuditLog{},
	))
	storage.DB = db
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{Email: email, Password: "x", Role: "user"}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createPlan(t *testing.T, db *gorm.DB, userID uint, name string, createdAt time.Time) models.MealPlan {
	t.Helper()
	plan := models.MealPlan{UserID: userID, Name: name, CreatedAt: createdAt}
	require.NoError(t, db.Create(&plan).Error)
	return plan
}

func TestResolvePlanIDExplicitWins(t *testing.T) {
	db := setupTestDB(t)
	owner := createUser(t, db, "owner@example.com")
	createPlan(t, db, owner.ID, "First", time.Now())

	id, err := ResolvePlanID(42, &Requester{ID: owner.ID, Email: owner.Email})
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestResolvePlanIDPrefersDefaultOverEarliest(t *testing.T) {
	db := setupTestDB(t)
	owner := createUser(t, db, "owner@example.com")
	earliest := createPlan(t, db, owner.ID, "Earliest", time.Now().Add(-2*time.Hour))
	preferred := createPlan(t, db, owner.ID, "Preferred", time.Now().Add(-1*time.Hour))
	require.NoError(t, db.Create(&models.UserPreferences{UserID: owner.ID, DefaultPlanID: &preferred.ID}).Error)

	id, err := ResolvePlanID(0, &Requester{ID: owner.ID, Email: owner.Email})
	require.NoError(t, err)
	assert.Equal(t, preferred.ID, id)
	assert.NotEqual(t, earliest.ID, id)
}

func TestResolvePlanIDFallsBackToEarliest(t *testing.T) {
	db := setupTestDB(t)
	owner := createUser(t, db, "owner@example.com")
	earliest := createPlan(t, db, owner.ID, "Earliest", time.Now().Add(-2*time.Hour))
	createPlan(t, db, owner.ID, "Later", time.Now().Add(-1*time.Hour))

	id, err := ResolvePlanID(0, &Requester{ID: owner.ID, Email: owner.Email})
	require.NoError(t, err)
	assert.Equal(t, earliest.ID, id)
}

func TestResolvePlanIDNoPlans(t *testing.T) {
	db := setupTestDB(t)
	owner := createUser(t, db, "owner@example.com")

	_, err := ResolvePlanID(0, &Requester{ID: owner.ID, Email: owner.Email})
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestResolvePlanIDAnonymousFeatured(t *testing.T) {
	db := setupTestDB(t)

	// no setting at all
	_, err := ResolvePlanID(0, nil)
	assert.ErrorIs(t, err, ErrPlanNotFound)

	require.NoError(t, db.Create(&models.AppSetting{Key: models.SettingFeaturedPlanID, Value: "7"}).Error)
	id, err := ResolvePlanID(0, nil)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)

	// unparseable value renders as "no plan", not a fallback
	require.NoError(t, db.Model(&models.AppSetting{}).
		Where("key = ?", models.SettingFeaturedPlanID).
		Update("value", "garbage").Error)
	_, err = ResolvePlanID(0, nil)
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestGetPlanHidesPrivatePlans(t *testing.T) {
	db := setupTestDB(t)
	owner := createUser(t, db, "owner@example.com")
	stranger := createUser(t, db, "stranger@example.com")
	plan := createPlan(t, db, owner.ID, "Private", time.Now())

	// anonymous: not found, never a 403-style distinction
	_, err := GetPlan(plan.ID, nil)
	assert.ErrorIs(t, err, ErrPlanNotFound)

	// authenticated stranger: same answer
	_, err = GetPlan(plan.ID, &Requester{ID: stranger.ID, Email: stranger.Email})
	assert.ErrorIs(t, err, ErrPlanNotFound)

	// owner sees it
	got, err := GetPlan(plan.ID, &Requester{ID: owner.ID, Email: owner.Email})
	require.NoError(t, err)
	assert.Equal(t, plan.ID, got.ID)

	// public: visible to everyone
	require.NoError(t, db.Model(&models.MealPlan{}).Where("id = ?", plan.ID).Update("is_public", true).Error)
	_, err = GetPlan(plan.ID, nil)
	assert.NoError(t, err)
}

func TestCanEditPlanPermissions(t *testing.T) {
	db := setupTestDB(t)
	owner := createUser(t, db, "owner@example.com")
	viewer := createUser(t, db, "viewer@example.com")
	editor := createUser(t, db, "editor@example.com")
	plan := createPlan(t, db, owner.ID, "Shared", time.Now())

	require.NoError(t, db.Create(&models.PlanShare{PlanID: plan.ID, SharedWithEmail: viewer.Email, Permission: models.SharePermissionView}).Error)
	require.NoError(t, db.Create(&models.PlanShare{PlanID: plan.ID, SharedWithEmail: editor.Email, Permission: models.SharePermissionEdit}).Error)

	assert.True(t, CanEditPlan(&plan, &Requester{ID: owner.ID, Email: owner.Email}))
	assert.False(t, CanEditPlan(&plan, &Requester{ID: viewer.ID, Email: viewer.Email}))
	assert.True(t, CanEditPlan(&plan, &Requester{ID: editor.ID, Email: editor.Email}))
	assert.False(t, CanEditPlan(&plan, nil))
}

func TestLoadPlanViewStitching(t *testing.T) {
	db := setupTestDB(t)
	owner := createUser(t, db, "owner@example.com")
	plan := createPlan(t, db, owner.ID, "Week", time.Now())

	// days inserted out of order; order_index decides
	dayTwo := models.MealPlanDay{PlanID: plan.ID, UserID: owner.ID, DayName: "Tuesday", OrderIndex: 5, IsActive: true}
	dayOne := models.MealPlanDay{PlanID: plan.ID, UserID: owner.ID, DayName: "Monday", OrderIndex: 2, IsActive: true}
	require.NoError(t, db.Create(&dayTwo).Error)
	require.NoError(t, db.Create(&dayOne).Error)

	pasta := models.Meal{UserID: owner.ID, Name: "Pasta", Ingredients: "Noodles"}
	soup := models.Meal{UserID: owner.ID, Name: "Soup", Ingredients: "Stock"}
	require.NoError(t, db.Create(&pasta).Error)
	require.NoError(t, db.Create(&soup).Error)

	// same meal reused across days, plus one junction row left dangling
	require.NoError(t, db.Create(&models.DayMeal{DayID: dayOne.ID, MealID: soup.ID, OrderIndex: 1}).Error)
	require.NoError(t, db.Create(&models.DayMeal{DayID: dayOne.ID, MealID: pasta.ID, OrderIndex: 0}).Error)
	require.NoError(t, db.Create(&models.DayMeal{DayID: dayTwo.ID, MealID: pasta.ID, OrderIndex: 0}).Error)
	require.NoError(t, db.Create(&models.DayMeal{DayID: dayTwo.ID, MealID: 9999, OrderIndex: 1}).Error)

	view, err := LoadPlanView(plan.ID, &Requester{ID: owner.ID, Email: owner.Email})
	require.NoError(t, err)

	assert.Equal(t, plan.ID, view.PlanID)
	assert.True(t, view.CanEdit)
	require.Len(t, view.Days, 2)

	assert.Equal(t, "Monday", view.Days[0].DayName)
	require.Len(t, view.Days[0].Meals, 2)
	assert.Equal(t, "Pasta", view.Days[0].Meals[0].Name)
	assert.Equal(t, "Soup", view.Days[0].Meals[1].Name)

	// dangling junction row skipped, not an error
	assert.Equal(t, "Tuesday", view.Days[1].DayName)
	require.Len(t, view.Days[1].Meals, 1)
	assert.Equal(t, "Pasta", view.Days[1].Meals[0].Name)
}

func TestLoadPlanViewEmptyPlan(t *testing.T) {
	db := setupTestDB(t)
	owner := createUser(t, db, "owner@example.com")
	plan := createPlan(t, db, owner.ID, "Empty", time.Now())

	view, err := LoadPlanView(plan.ID, &Requester{ID: owner.ID, Email: owner.Email})
	require.NoError(t, err)
	assert.NotNil(t, view.Days)
	assert.Empty(t, view.Days)
}

func TestLoadPlanViewByToken(t *testing.T) {
	db := setupTestDB(t)
	owner := createUser(t, db, "owner@example.com")
	token := "abcDEF123456"
	plan := models.MealPlan{UserID: owner.ID, Name: "Public", IsPublic: true, ShareToken: &token}
	require.NoError(t, db.Create(&plan).Error)

	view, err := LoadPlanViewByToken(token)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, view.PlanID)
	assert.False(t, view.CanEdit)

	// withdrawn plan stops resolving even though the token persists
	require.NoError(t, db.Model(&models.MealPlan{}).Where("id = ?", plan.ID).Update("is_public", false).Error)
	_, err = LoadPlanViewByToken(token)
	assert.ErrorIs(t, err, ErrPlanNotFound)

	_, err = LoadPlanViewByToken("nosuchtoken1")
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestLoadIngredientStatus(t *testing.T) {
	db := setupTestDB(t)
	owner := createUser(t, db, "owner@example.com")
	plan := createPlan(t, db, owner.ID, "Week", time.Now())

	require.NoError(t, db.Create(&models.PlanIngredientStatus{PlanID: plan.ID, Ingredient: "2 eggs", HasItem: true}).Error)
	require.NoError(t, db.Create(&models.PlanIngredientStatus{PlanID: plan.ID, Ingredient: "flour", HasItem: false}).Error)

	status, err := LoadIngredientStatus(plan.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"2 eggs": true, "flour": false}, status)
}
