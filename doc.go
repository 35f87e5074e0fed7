// Package datashare provides a file-sharing service built around short
// share tokens and presigned object-store URLs.
//
// Accounts log in with an email and password and receive a signed session
// credential in an HTTP-only cookie. Uploading a file returns a presigned PUT
// URL and a 6-character share token; anyone holding the token can obtain a
// presigned GET URL until the token expires. File content never passes
// through the service.
//
// # Key Components
//
//   - CredentialCodec: HS256 session credentials (issue, verify)
//   - AuthService: registration, login and credential to principal resolution
//   - TokenGenerator: share tokens over an unambiguous 32-symbol alphabet
//   - FileService: upload, download, owned delete, listing and storage cleanup
//   - FileRepo, UserRepo: persistence interfaces (PostgreSQL, SQLite)
//   - ObjectStorage: presigned URL backends (S3, MinIO, local filesystem)
//
// # Example Usage
//
//	codec, err := datashare.NewCredentialCodec(datashare.CredentialConfig{Secret: secret})
//	if err != nil {
//	    log.Fatal(err) // secret shorter than 32 bytes
//	}
//
//	files, err := datashare.NewFileService(repo, store, nil, datashare.ServiceConfig{})
//	res, err := files.CreateUpload(ctx, datashare.UploadRequest{
//	    Filename: "doc.pdf", ContentType: "application/pdf", Size: 1000,
//	}, uuid.NullUUID{})
//
//	// Later, anyone holding res.Token:
//	dl, err := files.CreateDownload(ctx, res.Token)
//
// See the http package for the REST API and the database and storage
// packages for backend implementations.
package datashare
