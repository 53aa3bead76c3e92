package main

import (
	"context"
	"os"
	"regexp"

	"faceid/cmd/internal/http/handler"
	"faceid/cmd/internal/infrastructure/idwall"
	"faceid/cmd/internal/infrastructure/serpro"
	"faceid/cmd/internal/service"
	"faceid/cmd/internal/validators"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

const envVarsPrefix = "/faceid/prod/"

// idwall API tokens are 36 hex/dash characters; anything else is a
// misconfiguration worth failing on before serving traffic.
var idwallTokenPattern = regexp.MustCompile(`^[a-f0-9\-]{36}$`)

func main() {
	validate := validator.New()
	registerValidators(validate)

	// Loads env vars depending on environment
	if os.Getenv("GO_ENV") == "production" {
		loadProdEnv() // AWS SSM Parameter Store
	} else {
		// Loads from .env
		err := godotenv.Load()
		if err != nil {
			panic(err)
		}
	}

	serproClient := serpro.NewClient(
		requireEnv("SERPRO_CLIENT_ID"),
		requireEnv("SERPRO_CLIENT_SECRET"),
	)

	idwallToken := requireEnv("IDWALL_API_TOKEN")
	if !idwallTokenPattern.MatchString(idwallToken) {
		log.Fatalf("IDWALL_API_TOKEN has an unexpected format")
	}
	idwallClient := idwall.NewClient(idwallToken)

	flows := service.FlowConfig{
		Kyc:      requireEnv("IDWALL_FLOW_ID"),
		Face:     requireEnv("IDWALL_FLOW_ID_FACE"),
		Document: requireEnv("IDWALL_FLOW_ID_RG"),
	}

	// Getting services
	verificationService := service.NewVerificationService(serproClient, idwallClient, validate, flows)

	// Gettings handler
	verificationRoutes := handler.NewVerificationDefault(verificationService)

	e := echo.New()
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("30M"))

	// Verification pipelines
	e.POST("/api/registry-lookup", verificationRoutes.LookupCpf)
	e.POST("/api/verify-identity", verificationRoutes.VerifyIdentity)
	e.POST("/api/register-face", verificationRoutes.RegisterFace)
	e.POST("/api/upload-id-document", verificationRoutes.UploadDocument)

	// Docker Compose healthcheck
	e.GET("/health", healthCheckRoute)

	if err := e.Start(":7070"); err != nil {
		panic(err)
	}
}

func registerValidators(validate *validator.Validate) {
	_ = validate.RegisterValidation("cpf", validators.Cpf)
	_ = validate.RegisterValidation("dataurl", validators.DataURL)
}

func requireEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("missing required environment variable %s", key)
	}
	return value
}

func loadProdEnv() {
	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion("us-east-2"))
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	client := ssm.NewFromConfig(cfg)
	out, err := client.GetParametersByPath(ctx, &ssm.GetParametersByPathInput{
		Path:           aws.String(envVarsPrefix),
		WithDecryption: aws.Bool(true),
		Recursive:      aws.Bool(true),
	})
	if err != nil {
		log.Fatalf("unable to load prod environment, %v", err)
	}

	prefixLength := len(envVarsPrefix)
	// Export vars
	for _, param := range out.Parameters {
		key := (*param.Name)[prefixLength:]
		value := *param.Value
		enverr := os.Setenv(key, value)
		if enverr != nil {
			log.Fatalf("unable to set environment variable, %v", enverr)
		}
	}
	log.Debugf("loaded %d prod environment variables", len(out.Parameters))
}

func healthCheckRoute(c echo.Context) error {
	return c.String(200, "OK")
}
