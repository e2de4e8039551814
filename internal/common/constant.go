package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// LocalOwner is the pseudo-user that owns every record in the local store.
const LocalOwner = "local_user"

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)
