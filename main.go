package main

import (
	"log"
	"os"

	"mealplan-server/routes"
	"mealplan-server/storage"
	"mealplan-server/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	godotenv.Load()
	storage.InitializeDB()
	storage.InitializeRedis()

	app := iris.New()
	app.Validator = validator.New()

	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}

		return tokenInput.RefreshToken
	})

	user := app.Party("/api/user")
	{
		user.Post("/register", routes.Register)
		user.Post("/login", routes.Login)
		user.Post("/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)
	}

	// Anonymous-friendly reads: the resolved plan view, share-token links and
	// the shopping list of a visible plan.
	app.Get("/api/plan", utils.OptionalUserMiddleware, routes.GetPlanView)
	app.Get("/api/public/plans/{token}", routes.GetPlanByShareToken)
	app.Get("/api/plans/{id:uint}/shopping-list", utils.OptionalUserMiddleware, routes.GetShoppingList)

	api := app.Party("/api", accessTokenVerifierMiddleware)
	{
		api.Get("/meals", routes.GetMeals)
		api.Post("/meals", routes.CreateMeal)
		api.Patch("/meals/{id:uint}", routes.UpdateMeal)
		api.Delete("/meals/{id:uint}", routes.DeleteMeal)

		api.Get("/plans", routes.GetPlans)
		api.Post("/plans", routes.CreatePlan)
		api.Patch("/plans/{id:uint}", routes.UpdatePlan)
		api.Delete("/plans/{id:uint}", routes.DeletePlan)
		api.Post("/plans/{id:uint}/visibility", routes.TogglePlanVisibility)

		api.Post("/plans/{id:uint}/days", routes.CreateDay)
		api.Patch("/days/{id:uint}", routes.UpdateDay)
		api.Delete("/days/{id:uint}", routes.DeleteDay)

		api.Post("/days/{id:uint}/meals", routes.AddMealToDay)
		api.Put("/days/{id:uint}/meals/order", routes.ReorderDayMeals)
		api.Delete("/day-meals/{id:uint}", routes.RemoveMealFromDay)

		api.Get("/plans/{id:uint}/shares", routes.GetShares)
		api.Post("/plans/{id:uint}/shares", routes.CreateShare)
		api.Delete("/shares/{id:uint}", routes.DeleteShare)

		api.Put("/plans/{id:uint}/ingredients", routes.SetIngredientStatus)
		api.Delete("/plans/{id:uint}/ingredients", routes.ResetIngredientStatus)

		api.Put("/preferences/default-plan", routes.SetDefaultPlan)
	}

	admin := app.Party("/api/admin", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware)
	{
		admin.Get("/users", routes.AdminListUsers)
		admin.Delete("/users/{id:uint}", routes.AdminDeleteUser)
		admin.Get("/meals", routes.AdminListMeals)
		admin.Delete("/meals/{id:uint}", routes.AdminDeleteMeal)
		admin.Patch("/meals/{id:uint}/private", routes.AdminForceMealPrivate)
		admin.Put("/settings/featured-plan", routes.AdminSetFeaturedPlan)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}

	log.Println("listening on :" + port)
	app.Listen(":" + port)
}
