// Package config provides the extractor configuration.
//
// A single Config describes one extraction: how to reach the database
// (DbConfig), which collections to export (ExportConfig) and how the
// external export tool is invoked (ProcessConfig).
//
// # Connection modes
//
// Db.Protocol selects how the connection string is produced:
//
//   - mongodb: assembled from host, port, database, user and password
//   - mongodb+srv: assembled the same way; the port is discarded
//   - custom_uri: parsed from Db.URI; the password is always supplied
//     separately through Db.Password and never inside the URI
//
// # Usage
//
//	cfg, err := config.Load("extractor.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Environment variables are substituted with ${VAR_NAME} syntax before the
// YAML is decoded, which keeps secrets out of configuration files:
//
//	db:
//	  protocol: mongodb
//	  host: mongo.internal
//	  port: 27017
//	  database: shop
//	  user: reader
//	  password: ${MONGO_PASSWORD}
package config
