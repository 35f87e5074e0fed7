// Package clientcli provides a client library for a datashare server.
//
// It covers account registration and login, file upload and download through
// share tokens, and listing or deleting the caller's own files. Profiles in a
// YAML config file keep the endpoint and the login session of several
// servers.
//
// # Basic Usage
//
// Log in and upload a file:
//
//	client, err := clientcli.New(&clientcli.Config{Endpoint: "http://localhost:8080"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if _, err := client.Login(ctx, "alice@example.com", password); err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := client.Upload(ctx, clientcli.UploadOptions{LocalPath: "./report.pdf"})
//	fmt.Println("share token:", result.Token)
//
// Uploads and downloads are two steps: the API hands out a short lived
// presigned URL and the client then talks to storage directly.
//
// # Profile Configuration
//
//	configFile, err := clientcli.LoadConfigFile(clientcli.DefaultConfigPath())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("production")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := clientcli.New(clientcli.ConfigFromProfile(profile))
//
// Login stores the session cookie value in the profile so later commands
// reuse it.
//
// # Output Formatting
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatUpload(os.Stdout, result)
package clientcli
