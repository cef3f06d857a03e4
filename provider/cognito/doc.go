// Package cognito implements herodb.IdentityProvider against the AWS Cognito
// user-pool wire protocol (x-amz-json-1.1 over HTTPS). Only the public,
// unauthenticated client operations are used (InitiateAuth, SignUp,
// ConfirmSignUp, ResendConfirmationCode, GlobalSignOut), so no AWS SDK or
// request signing is required, just the app client id.
//
// Known failure sentinels are classified into the herodb error taxonomy at
// this boundary; anything unrecognized propagates with its service type and
// message intact.
package cognito
