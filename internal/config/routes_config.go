package config

const (
	protectedPrefixesVar = "PROTECTED_PREFIXES"
	loginPathVar         = "LOGIN_PATH"
	postLoginPathVar     = "POST_LOGIN_PATH"
)

type Routes struct {
	ProtectedPrefixes []string `yaml:"protectedPrefixes"`
	LoginPath         string   `yaml:"loginPath"`
	PostLoginPath     string   `yaml:"postLoginPath"`
}

var _ RoutesConfig = Routes{}

func (r Routes) GetProtectedPrefixes() []string {
	return getList(protectedPrefixesVar, r.ProtectedPrefixes, []string{"/dashboard", "/settings"})
}

func (r Routes) GetLoginPath() string {
	return GetEnv(loginPathVar, orDefault(r.LoginPath, "/login"))
}

func (r Routes) GetPostLoginPath() string {
	return GetEnv(postLoginPathVar, orDefault(r.PostLoginPath, "/dashboard"))
}
