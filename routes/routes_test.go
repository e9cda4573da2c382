package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"mealplan-server/models"
	"mealplan-server/storage"
	"mealplan-server/utils"

	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
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

// buildTestApp assembles an in-process Iris app with the same route layout
// as main.go.
func buildTestApp(t *testing.T) *iris.Application {
	t.Helper()
	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")

	app := iris.New()
	app.Validator = validator.New()

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	app.Get("/api/plan", utils.OptionalUserMiddleware, GetPlanView)
	app.Get("/api/public/plans/{token}", GetPlanByShareToken)
	app.Get("/api/plans/{id:uint}/shopping-list", utils.OptionalUserMiddleware, GetShoppingList)

	api := app.Party("/api", accessTokenVerifierMiddleware)
	{
		api.Get("/meals", GetMeals)
		api.Post("/meals", CreateMeal)
		api.Patch("/meals/{id:uint}", UpdateMeal)
		api.Delete("/meals/{id:uint}", DeleteMeal)

		api.Get("/plans", GetPlans)
		api.Post("/plans", CreatePlan)
		api.Patch("/plans/{id:uint}", UpdatePlan)
		api.Delete("/plans/{id:uint}", DeletePlan)
		api.Post("/plans/{id:uint}/visibility", TogglePlanVisibility)

		api.Post("/plans/{id:uint}/days", CreateDay)
		api.Patch("/days/{id:uint}", UpdateDay)
		api.Delete("/days/{id:uint}", DeleteDay)

		api.Post("/days/{id:uint}/meals", AddMealToDay)
		api.Put("/days/{id:uint}/meals/order", ReorderDayMeals)
		api.Delete("/day-meals/{id:uint}", RemoveMealFromDay)

		api.Get("/plans/{id:uint}/shares", GetShares)
		api.Post("/plans/{id:uint}/shares", CreateShare)
		api.Delete("/shares/{id:uint}", DeleteShare)

		api.Put("/plans/{id:uint}/ingredients", SetIngredientStatus)
		api.Delete("/plans/{id:uint}/ingredients", ResetIngredientStatus)

		api.Put("/preferences/default-plan", SetDefaultPlan)
	}

	admin := app.Party("/api/admin", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware)
	{
		admin.Get("/users", AdminListUsers)
		admin.Delete("/users/{id:uint}", AdminDeleteUser)
		admin.Get("/meals", AdminListMeals)
		admin.Delete("/meals/{id:uint}", AdminDeleteMeal)
		admin.Patch("/meals/{id:uint}/private", AdminForceMealPrivate)
		admin.Put("/settings/featured-plan", AdminSetFeaturedPlan)
	}

	require.NoError(t, app.Build())
	return app
}

func seedUser(t *testing.T, db *gorm.DB, email, role string) models.User {
	t.Helper()
	user := models.User{Email: email, Password: "x", Role: role}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func signToken(t *testing.T, user models.User) string {
	t.Helper()
	signer := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), time.Hour)
	token, err := signer.Sign(utils.AccessToken{ID: user.ID, Email: user.Email, Role: user.Role})
	require.NoError(t, err)
	return string(token)
}

// doJSON fires one request at the test app. An empty token means anonymous.
func doJSON(t *testing.T, app *iris.Application, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

func uintStr(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), dest))
}

func mustStatus(t *testing.T, resp *httptest.ResponseRecorder, want int) {
	t.Helper()
	if resp.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, resp.Code, resp.Body.String())
	}
}
