package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"twinklepod/infrastructure/config"
	"twinklepod/infrastructure/di"
	"twinklepod/interfaces/http/rest/middleware"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var (
	chiLambda     *chiadapter.ChiLambda
	container     *di.Container
	coldStart     = true
	coldStartTime time.Time
)

func init() {
	coldStartTime = time.Now()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	chiRouter, ok := container.Router.Setup().(*chi.Mux)
	if !ok {
		log.Fatal("Failed to cast handler to chi.Mux")
	}
	chiLambda = chiadapter.New(chiRouter)

	container.Logger.Info("Lambda cold start completed",
		zap.Duration("duration", time.Since(coldStartTime)))
}

// Handler proxies API Gateway REST requests into the chi router
func Handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if req.Headers == nil {
		req.Headers = make(map[string]string)
	}
	for name := range req.Headers {
		if http.CanonicalHeaderKey(name) == middleware.UserIDHeader {
			delete(req.Headers, name)
		}
	}
	for name := range req.MultiValueHeaders {
		if http.CanonicalHeaderKey(name) == middleware.UserIDHeader {
			delete(req.MultiValueHeaders, name)
		}
	}

	if userID := authorizerSubject(req.RequestContext.Authorizer); userID != "" {
		req.Headers[middleware.UserIDHeader] = userID
		if req.MultiValueHeaders != nil {
			req.MultiValueHeaders[middleware.UserIDHeader] = []string{userID}
		}
	}

	resp, err := chiLambda.ProxyWithContext(ctx, req)
	container.FlushMetrics(ctx)
	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		coldStart = false
	}
	if req.RequestContext.RequestID != "" {
		resp.Headers["X-Request-ID"] = req.RequestContext.RequestID
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		container.Logger.Error("Lambda error response",
			zap.String("method", req.HTTPMethod),
			zap.String("path", req.Path),
			zap.String("request_id", req.RequestContext.RequestID),
			zap.Int("status_code", resp.StatusCode),
		)
	}

	return resp, err
}

// authorizerSubject reads the Cognito sub claim from the REST authorizer context
func authorizerSubject(authorizer map[string]interface{}) string {
	if authorizer == nil {
		return ""
	}
	if claims, ok := authorizer["claims"].(map[string]interface{}); ok {
		if sub, ok := claims["sub"].(string); ok {
			return sub
		}
	}
	if sub, ok := authorizer["principalId"].(string); ok {
		return sub
	}
	return ""
}

func main() {
	lambda.Start(Handler)
}
