//go:build lambda
// +build lambda

package main

import (
	"context"

	"github.com/nexfield/nexfield-api/apps/api/server"
	"github.com/nexfield/nexfield-api/libs/go/logger"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/davecgh/go-spew/spew"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title           Nexfield API
// @version         1.0
// @description     API server for multi-year sales tax nexus analysis

// @host      localhost:8000
// @BasePath  /api/v1

var ginLambda *ginadapter.GinLambda

// Cold start builds the full router once; invocations reuse it.
func init() {
	r := gin.Default()
	server.InitializeHandlers()
	server.InitializeRoutes(r)
	ginLambda = ginadapter.New(r)
}

func Handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	// Full request dumps only surface when LOG_LEVEL allows debug.
	logger.Debug("Received Lambda request",
		zap.String("path", req.Path),
		zap.String("request", spew.Sdump(req)),
	)

	return ginLambda.ProxyWithContext(ctx, req)
}

func main() {
	defer logger.Sync()
	lambda.Start(Handler)
}
