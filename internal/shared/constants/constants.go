package constants

// Request/response headers owned by the authentication gate.
const (
	HeaderAuthorization     = "Authorization"
	HeaderAccessKey         = "X-Access-Key"
	HeaderRequesterIdentity = "X-Requester-Identity"
	HeaderSetPassword       = "X-Set-Password"
	HeaderContentDesc       = "X-Content-Description"
	HeaderAuthenticate      = "WWW-Authenticate"
)

// Gate bypass paths, relative to the server root without the leading slash.
const (
	DiscoveryDocumentPath = "openapi.json"
	PublicDocumentPrefix  = "documents/"
	RegistrationPath      = "people"
)

// Environments
const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

// DefaultAvatarID is the identity of the seeded fallback avatar document.
// Document deletion refuses identities at or below this value.
const DefaultAvatarID = 1

// Database table names
const (
	TablePeople        = "people"
	TablePersonPhones  = "person_phones"
	TableAccessPlans   = "access_plans"
	TableAccessCounter = "access_counters"
	TableDocuments     = "documents"
	TableRecipes       = "recipes"
	TableIngredients   = "ingredients"
	TableVictuals      = "victuals"
	TableDishes        = "dishes"
	TableMealTypes     = "meal_types"
	TableIllustrations = "recipe_illustrations"
)
