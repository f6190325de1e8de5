package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev = "dev"

	EnvAppEnv    = "STOREFRONT_APP_ENV"
	EnvPort      = "STOREFRONT_APP_PORT"
	EnvLogLevel  = "STOREFRONT_LOG_LEVEL"
	EnvLogFormat = "STOREFRONT_LOG_FORMAT"

	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBName = "STOREFRONT_DB_NAME"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvJWTSecret  = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer  = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins = "STOREFRONT_JWT_EXPIRATION_MINUTES"

	EnvInventoryPolicy   = "STOREFRONT_INVENTORY_LOCATION_POLICY"
	EnvInventoryLowStock = "STOREFRONT_INVENTORY_LOW_STOCK_THRESHOLD"

	EnvPubSubOrdersTopic = "STOREFRONT_PUBSUB_ORDERS_TOPIC"

	EnvOutboxBatchSize = "STOREFRONT_OUTBOX_PUBLISH_BATCH_SIZE"
)
