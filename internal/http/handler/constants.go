package handler

import "math"

const (
	paramID   = "id"
	paramPart = "part"

	queryPage         = "page"
	querySize         = "size"
	queryRole         = "role"
	queryKeyword      = "keyword"
	queryAuthor       = "author"
	queryStatus       = "status"
	querySearch       = "search"
	querySort         = "sort"
	queryDirection    = "direction"
	queryActorID      = "actor_id"
	queryAction       = "action"
	queryResourceType = "resource_type"
	queryLimit        = "limit"
	queryOffset       = "offset"

	directionAsc = "asc"

	maxAuditQueryLimit = 500
	maxOffset          = math.MaxInt32
)

const (
	msgContentTypeJSONRequired = "content type must be application/json"
	msgInvalidRequestBody      = "invalid request body"
	msgInvalidID               = "invalid id"
	msgInvalidPartNumber       = "part number must be an integer"
	msgInvalidPage             = "page must be a non-negative integer"
	msgInvalidSize             = "size must be a positive integer"
	msgPageOutOfRange          = "page is out of range"
	msgInvalidRole             = "role must be one of USER, MANAGER, ADMIN"
	msgInvalidStatus           = "status must be one of DRAFT, PUBLISHED, ARCHIVED"
	msgInvalidSort             = "sort must be one of createdAt, title, author"
	msgInvalidDirection        = "direction must be asc or desc"
	msgInvalidLimit            = "limit must be a positive integer"
	msgInvalidOffset           = "offset must be a non-negative integer"
	msgInvalidAction           = "unknown audit action"
	msgInvalidResourceType     = "unknown audit resource type"

	msgRegistered        = "user registered successfully"
	msgLoggedIn          = "login successful"
	msgTokenRefreshed    = "token refreshed successfully"
	msgPasswordChanged   = "password changed successfully"
	msgUserUpdated       = "user updated successfully"
	msgRoleUpdated       = "role updated successfully"
	msgUserDeleted       = "user deleted successfully"
	msgCannotModifySelf  = "administrators cannot change their own role or delete themselves"
	msgNotAllowedUser    = "cannot view other users"
	msgUserNotFound      = "user not found"
	msgPostCreated       = "post created successfully"
	msgPostUpdated       = "post updated successfully"
	msgPostDeleted       = "post deleted successfully"
	msgPostNotFound      = "post not found"
	msgNotPostAuthor     = "only the author can modify this post"
	msgCannotDeletePost  = "not allowed to delete this post"
	msgUploadStarted     = "upload started"
	msgPartUploaded      = "part uploaded"
	msgUploadCompleted   = "upload completed"
	msgUploadAborted     = "upload aborted"
	msgFileNotFound      = "file not found"
	msgFileNotReady      = "file has not finished uploading"
	msgUploadNotInFlight = "upload is not in progress"
	msgEmptyPart         = "part body cannot be empty"
	msgPartTooLargeFmt   = "part exceeds the chunk size of %d bytes"
	msgFileTooLargeFmt   = "file exceeds the maximum size of %d bytes"
	msgTooManyParts      = "file would need more than 10000 parts at the configured chunk size"
	msgPartsRequired     = "parts cannot be empty"
	msgDuplicatePart     = "duplicate part number"
	msgETagRequired      = "every part needs an etag"
	msgStartUploadFailed = "failed to start upload"
	msgUploadPartFailed  = "failed to upload part"
	msgCompleteFailed    = "failed to complete upload"
	msgDownloadURLFailed = "failed to generate download URL"
)

// Upload lifecycle labels reported to metrics.
const (
	uploadEventStarted   = "started"
	uploadEventPart      = "part"
	uploadEventCompleted = "completed"
	uploadEventAborted   = "aborted"
	uploadEventFailed    = "failed"
)
