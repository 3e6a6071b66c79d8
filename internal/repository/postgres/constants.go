package postgres

import (
	"fmt"
	"time"
)

const (
	poolHealthCheckPeriod = time.Minute
	poolMaxConnLifetime   = time.Hour
	poolMaxConnIdleTime   = 30 * time.Minute
	dbPingTimeout         = 5 * time.Second

	defaultListLimit = 20

	errUserNotFound       = "user not found"
	errPostNotFound       = "post not found"
	errFileNotFound       = "file not found"
	errEmailExists        = "user with this email already exists"
	errUploadNotInFlight  = "upload is not in progress"
	errAttachFileNotFound = "attached file not found"
	errAttachFileNotReady = "attached file has not finished uploading"

	errFailedParseDatabaseConfigFmt  = "failed to parse database config: %w"
	errFailedCreateConnectionPoolFmt = "failed to create connection pool: %w"
	errFailedPingDatabaseFmt         = "failed to ping database: %w"

	errFailedStartTransactionFmt  = "failed to start transaction: %w"
	errFailedCommitTransactionFmt = "failed to commit transaction: %w"

	errFailedCreateUserFmt = "failed to create user: %w"
	errFailedGetUserFmt    = "failed to get user: %w"
	errFailedListUsersFmt  = "failed to list users: %w"
	errFailedCountUsersFmt = "failed to count users: %w"
	errFailedScanUserFmt   = "failed to scan user: %w"
	errIterateUsersFmt     = "error iterating users: %w"
	errFailedUpdateUserFmt = "failed to update user: %w"
	errFailedDeleteUserFmt = "failed to delete user: %w"

	errFailedCreatePostFmt      = "failed to create post: %w"
	errFailedGetPostFmt         = "failed to get post: %w"
	errFailedListPostsFmt       = "failed to list posts: %w"
	errFailedCountPostsFmt      = "failed to count posts: %w"
	errFailedScanPostFmt        = "failed to scan post: %w"
	errFailedUpdatePostFmt      = "failed to update post: %w"
	errFailedDeletePostFmt      = "failed to delete post: %w"
	errFailedAttachFilesFmt     = "failed to attach files: %w"
	errFailedLoadPostFilesFmt   = "failed to load post files: %w"
	errFailedCreateFileFmt      = "failed to create file: %w"
	errFailedGetFileFmt         = "failed to get file: %w"
	errFailedListFilesFmt       = "failed to list files: %w"
	errFailedCountFilesFmt      = "failed to count files: %w"
	errFailedScanFileFmt        = "failed to scan file: %w"
	errFailedUpdateFileFmt      = "failed to update file: %w"
	errFailedCheckVisibilityFmt = "failed to check file visibility: %w"

	errFailedApplySchemaFmt = "failed to apply schema: %w"
	errFailedCheckTableFmt  = "failed to check table %s: %w"
)

var (
	errFailedApplySchema          = func(err error) error { return fmt.Errorf(errFailedApplySchemaFmt, err) }
	errFailedAttachFiles          = func(err error) error { return fmt.Errorf(errFailedAttachFilesFmt, err) }
	errFailedCheckVisibility      = func(err error) error { return fmt.Errorf(errFailedCheckVisibilityFmt, err) }
	errFailedCommitTransaction    = func(err error) error { return fmt.Errorf(errFailedCommitTransactionFmt, err) }
	errFailedCountFiles           = func(err error) error { return fmt.Errorf(errFailedCountFilesFmt, err) }
	errFailedCountPosts           = func(err error) error { return fmt.Errorf(errFailedCountPostsFmt, err) }
	errFailedCountUsers           = func(err error) error { return fmt.Errorf(errFailedCountUsersFmt, err) }
	errFailedCreateConnectionPool = func(err error) error { return fmt.Errorf(errFailedCreateConnectionPoolFmt, err) }
	errFailedCreateFile           = func(err error) error { return fmt.Errorf(errFailedCreateFileFmt, err) }
	errFailedCreatePost           = func(err error) error { return fmt.Errorf(errFailedCreatePostFmt, err) }
	errFailedCreateUser           = func(err error) error { return fmt.Errorf(errFailedCreateUserFmt, err) }
	errFailedDeletePost           = func(err error) error { return fmt.Errorf(errFailedDeletePostFmt, err) }
	errFailedDeleteUser           = func(err error) error { return fmt.Errorf(errFailedDeleteUserFmt, err) }
	errFailedGetFile              = func(err error) error { return fmt.Errorf(errFailedGetFileFmt, err) }
	errFailedGetPost              = func(err error) error { return fmt.Errorf(errFailedGetPostFmt, err) }
	errFailedGetUser              = func(err error) error { return fmt.Errorf(errFailedGetUserFmt, err) }
	errFailedListFiles            = func(err error) error { return fmt.Errorf(errFailedListFilesFmt, err) }
	errFailedListPosts            = func(err error) error { return fmt.Errorf(errFailedListPostsFmt, err) }
	errFailedListUsers            = func(err error) error { return fmt.Errorf(errFailedListUsersFmt, err) }
	errFailedLoadPostFiles        = func(err error) error { return fmt.Errorf(errFailedLoadPostFilesFmt, err) }
	errFailedParseDatabaseConfig  = func(err error) error { return fmt.Errorf(errFailedParseDatabaseConfigFmt, err) }
	errFailedPingDatabase         = func(err error) error { return fmt.Errorf(errFailedPingDatabaseFmt, err) }
	errFailedScanFile             = func(err error) error { return fmt.Errorf(errFailedScanFileFmt, err) }
	errFailedScanPost             = func(err error) error { return fmt.Errorf(errFailedScanPostFmt, err) }
	errFailedScanUser             = func(err error) error { return fmt.Errorf(errFailedScanUserFmt, err) }
	errFailedStartTransaction     = func(err error) error { return fmt.Errorf(errFailedStartTransactionFmt, err) }
	errFailedUpdateFile           = func(err error) error { return fmt.Errorf(errFailedUpdateFileFmt, err) }
	errFailedUpdatePost           = func(err error) error { return fmt.Errorf(errFailedUpdatePostFmt, err) }
	errFailedUpdateUser           = func(err error) error { return fmt.Errorf(errFailedUpdateUserFmt, err) }
	errIterateUsers               = func(err error) error { return fmt.Errorf(errIterateUsersFmt, err) }
)
