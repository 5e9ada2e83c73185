package app

import (
	"fmt"

	authDomain "github.com/email-management-platform/backend/gateway/internal/auth/domain"
	authRepository "github.com/email-management-platform/backend/gateway/internal/auth/repository"
	authService "github.com/email-management-platform/backend/gateway/internal/auth/service"
	authUseCase "github.com/email-management-platform/backend/gateway/internal/auth/usecase"
)

// TokenDigester returns the keyed digest service for token cache and
// blacklist keys.
func (c *Container) TokenDigester() (authService.TokenDigester, error) {
	var err error
	c.tokenDigesterInit.Do(func() {
		c.tokenDigester, err = authService.NewTokenDigester(c.config.TokenDigestSecret)
		if err != nil {
			c.initErrors["tokenDigester"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenDigester"]; exists {
		return nil, storedErr
	}
	return c.tokenDigester, nil
}

// KeySetProvider returns the cached JWKS fetcher.
func (c *Container) KeySetProvider() authService.KeySetProvider {
	c.keySetProviderInit.Do(func() {
		c.keySetProvider = authService.NewHTTPKeySetProvider(
			c.config.JWKSURL,
			c.config.JWKSCacheTTL,
			c.config.TokenValidationTimeout,
		)
	})
	return c.keySetProvider
}

// TokenValidator returns the signature and claims validator.
func (c *Container) TokenValidator() authService.TokenValidator {
	c.tokenValidatorInit.Do(func() {
		c.tokenValidator = authService.NewTokenValidator(
			c.KeySetProvider(),
			c.config.JWTIssuer,
			c.config.JWTAudience,
			c.config.TokenClockSkew,
			c.config.TokenValidationTimeout,
		)
	})
	return c.tokenValidator
}

// RoleHierarchy returns the configured role implication map.
func (c *Container) RoleHierarchy() (*authDomain.RoleHierarchy, error) {
	var err error
	c.roleHierarchyInit.Do(func() {
		c.roleHierarchy, err = c.initRoleHierarchy()
		if err != nil {
			c.initErrors["roleHierarchy"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["roleHierarchy"]; exists {
		return nil, storedErr
	}
	return c.roleHierarchy, nil
}

// TokenCache returns the validated-claims cache, Redis-backed when the shared
// store is enabled.
func (c *Container) TokenCache() (authUseCase.TokenCache, error) {
	var err error
	c.tokenCacheInit.Do(func() {
		c.tokenCache, err = c.initTokenCache()
		if err != nil {
			c.initErrors["tokenCache"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenCache"]; exists {
		return nil, storedErr
	}
	return c.tokenCache, nil
}

// RevocationStore returns the token blacklist store.
func (c *Container) RevocationStore() (authUseCase.RevocationStore, error) {
	var err error
	c.revocationStoreInit.Do(func() {
		c.revocationStore, err = c.initRevocationStore()
		if err != nil {
			c.initErrors["revocationStore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["revocationStore"]; exists {
		return nil, storedErr
	}
	return c.revocationStore, nil
}

// RoleCache returns the per-subject role assignment cache.
func (c *Container) RoleCache() (authUseCase.RoleCache, error) {
	var err error
	c.roleCacheInit.Do(func() {
		c.roleCache, err = c.initRoleCache()
		if err != nil {
			c.initErrors["roleCache"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["roleCache"]; exists {
		return nil, storedErr
	}
	return c.roleCache, nil
}

// SubjectDirectory returns the subject role source based on the configured
// identity backend.
func (c *Container) SubjectDirectory() (authUseCase.SubjectDirectory, error) {
	var err error
	c.subjectDirectoryInit.Do(func() {
		c.subjectDirectory, err = c.initSubjectDirectory()
		if err != nil {
			c.initErrors["subjectDirectory"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["subjectDirectory"]; exists {
		return nil, storedErr
	}
	return c.subjectDirectory, nil
}

// SubjectStore returns the subject directory administration repository.
// Fails unless the sql identity backend is configured.
func (c *Container) SubjectStore() (authUseCase.SubjectStore, error) {
	var err error
	c.subjectStoreInit.Do(func() {
		c.subjectStore, err = c.initSubjectStore()
		if err != nil {
			c.initErrors["subjectStore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["subjectStore"]; exists {
		return nil, storedErr
	}
	return c.subjectStore, nil
}

// RevocationRepository returns the revocation audit repository based on the
// database driver.
func (c *Container) RevocationRepository() (authUseCase.RevocationRepository, error) {
	var err error
	c.revocationRepoInit.Do(func() {
		c.revocationRepo, err = c.initRevocationRepository()
		if err != nil {
			c.initErrors["revocationRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["revocationRepo"]; exists {
		return nil, storedErr
	}
	return c.revocationRepo, nil
}

// AuthUseCase returns the request authentication use case.
func (c *Container) AuthUseCase() (authUseCase.AuthUseCase, error) {
	var err error
	c.authUseCaseInit.Do(func() {
		c.authUseCase, err = c.initAuthUseCase()
		if err != nil {
			c.initErrors["authUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authUseCase"]; exists {
		return nil, storedErr
	}
	return c.authUseCase, nil
}

// RoleUseCase returns the subject role resolution use case.
func (c *Container) RoleUseCase() (authUseCase.RoleUseCase, error) {
	var err error
	c.roleUseCaseInit.Do(func() {
		c.roleUseCase, err = c.initRoleUseCase()
		if err != nil {
			c.initErrors["roleUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["roleUseCase"]; exists {
		return nil, storedErr
	}
	return c.roleUseCase, nil
}

// RevocationUseCase returns the token revocation use case.
func (c *Container) RevocationUseCase() (authUseCase.RevocationUseCase, error) {
	var err error
	c.revocationUseCaseInit.Do(func() {
		c.revocationUseCase, err = c.initRevocationUseCase()
		if err != nil {
			c.initErrors["revocationUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["revocationUseCase"]; exists {
		return nil, storedErr
	}
	return c.revocationUseCase, nil
}

// SubjectUseCase returns the subject directory administration use case.
func (c *Container) SubjectUseCase() (authUseCase.SubjectUseCase, error) {
	var err error
	c.subjectUseCaseInit.Do(func() {
		c.subjectUseCase, err = c.initSubjectUseCase()
		if err != nil {
			c.initErrors["subjectUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["subjectUseCase"]; exists {
		return nil, storedErr
	}
	return c.subjectUseCase, nil
}

// initRoleHierarchy builds the hierarchy from configuration, falling back to
// the built-in admin > manager > user > guest chain.
func (c *Container) initRoleHierarchy() (*authDomain.RoleHierarchy, error) {
	if c.config.RoleHierarchy == "" {
		return authDomain.DefaultRoleHierarchy(), nil
	}

	hierarchy, err := authDomain.ParseRoleHierarchy(c.config.RoleHierarchy)
	if err != nil {
		return nil, fmt.Errorf("failed to parse role hierarchy: %w", err)
	}
	return hierarchy, nil
}

// initTokenCache creates the claims cache based on the shared-store setting.
func (c *Container) initTokenCache() (authUseCase.TokenCache, error) {
	if c.config.RedisEnabled {
		client, err := c.Redis()
		if err != nil {
			return nil, fmt.Errorf("failed to get redis for token cache: %w", err)
		}
		return authRepository.NewRedisTokenCache(client), nil
	}
	return authRepository.NewMemoryTokenCache(c.config.TokenCacheMaxEntries), nil
}

// initRevocationStore creates the blacklist store based on the shared-store
// setting.
func (c *Container) initRevocationStore() (authUseCase.RevocationStore, error) {
	if c.config.RedisEnabled {
		client, err := c.Redis()
		if err != nil {
			return nil, fmt.Errorf("failed to get redis for revocation store: %w", err)
		}
		return authRepository.NewRedisRevocationStore(client), nil
	}
	return authRepository.NewMemoryRevocationStore(), nil
}

// initRoleCache creates the role cache based on the shared-store setting.
func (c *Container) initRoleCache() (authUseCase.RoleCache, error) {
	if c.config.RedisEnabled {
		client, err := c.Redis()
		if err != nil {
			return nil, fmt.Errorf("failed to get redis for role cache: %w", err)
		}
		return authRepository.NewRedisRoleCache(client), nil
	}
	return authRepository.NewMemoryRoleCache(), nil
}

// initSubjectDirectory creates the subject role source. The http backend asks
// the identity provider's management API; the sql backend reads the local
// subject tables.
func (c *Container) initSubjectDirectory() (authUseCase.SubjectDirectory, error) {
	switch c.config.IdentityBackend {
	case "http":
		return authRepository.NewHTTPSubjectDirectory(
			c.config.IdentityAPIURL,
			c.config.IdentityAPIToken,
			c.config.IdentityAPITimeout,
		), nil
	case "sql":
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for subject directory: %w", err)
		}
		switch c.config.DBDriver {
		case "postgres":
			return authRepository.NewPostgreSQLSubjectRepository(db), nil
		case "mysql":
			return authRepository.NewMySQLSubjectRepository(db), nil
		default:
			return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	default:
		return nil, fmt.Errorf("unsupported identity backend: %s", c.config.IdentityBackend)
	}
}

// initSubjectStore creates the subject administration repository. Unlike the
// directory lookup, administration has no remote flavor: it writes the local
// subject tables, so it requires the sql identity backend.
func (c *Container) initSubjectStore() (authUseCase.SubjectStore, error) {
	if c.config.IdentityBackend != "sql" {
		return nil, fmt.Errorf("subject administration requires the sql identity backend, got: %s", c.config.IdentityBackend)
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for subject store: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return authRepository.NewPostgreSQLSubjectRepository(db), nil
	case "mysql":
		return authRepository.NewMySQLSubjectRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initRevocationRepository creates the revocation audit repository based on
// the database driver.
func (c *Container) initRevocationRepository() (authUseCase.RevocationRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for revocation repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return authRepository.NewPostgreSQLRevocationRepository(db), nil
	case "mysql":
		return authRepository.NewMySQLRevocationRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initSubjectUseCase creates the subject administration use case with all its
// dependencies.
func (c *Container) initSubjectUseCase() (authUseCase.SubjectUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction manager for subject use case: %w", err)
	}
	store, err := c.SubjectStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get subject store for subject use case: %w", err)
	}
	roleUC, err := c.RoleUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get role use case for subject use case: %w", err)
	}

	return authUseCase.NewSubjectUseCase(txManager, store, roleUC, c.Logger()), nil
}

// initAuthUseCase creates the authentication use case with all its dependencies.
func (c *Container) initAuthUseCase() (authUseCase.AuthUseCase, error) {
	digester, err := c.TokenDigester()
	if err != nil {
		return nil, fmt.Errorf("failed to get token digester for auth use case: %w", err)
	}
	tokenCache, err := c.TokenCache()
	if err != nil {
		return nil, fmt.Errorf("failed to get token cache for auth use case: %w", err)
	}
	revocationStore, err := c.RevocationStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get revocation store for auth use case: %w", err)
	}
	roleUC, err := c.RoleUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get role use case for auth use case: %w", err)
	}
	hierarchy, err := c.RoleHierarchy()
	if err != nil {
		return nil, fmt.Errorf("failed to get role hierarchy for auth use case: %w", err)
	}

	baseUseCase := authUseCase.NewAuthUseCase(
		c.config,
		c.TokenValidator(),
		digester,
		tokenCache,
		revocationStore,
		roleUC,
		hierarchy,
		c.Logger(),
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for auth use case: %w", err)
		}
		return authUseCase.NewAuthUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initRoleUseCase creates the role resolution use case with all its dependencies.
func (c *Container) initRoleUseCase() (authUseCase.RoleUseCase, error) {
	directory, err := c.SubjectDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get subject directory for role use case: %w", err)
	}
	roleCache, err := c.RoleCache()
	if err != nil {
		return nil, fmt.Errorf("failed to get role cache for role use case: %w", err)
	}
	hierarchy, err := c.RoleHierarchy()
	if err != nil {
		return nil, fmt.Errorf("failed to get role hierarchy for role use case: %w", err)
	}

	baseUseCase := authUseCase.NewRoleUseCase(
		c.config,
		directory,
		roleCache,
		hierarchy,
		c.Logger(),
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for role use case: %w", err)
		}
		return authUseCase.NewRoleUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initRevocationUseCase creates the revocation use case with all its dependencies.
func (c *Container) initRevocationUseCase() (authUseCase.RevocationUseCase, error) {
	digester, err := c.TokenDigester()
	if err != nil {
		return nil, fmt.Errorf("failed to get token digester for revocation use case: %w", err)
	}
	revocationStore, err := c.RevocationStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get revocation store for revocation use case: %w", err)
	}
	revocationRepo, err := c.RevocationRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get revocation repository for revocation use case: %w", err)
	}
	tokenCache, err := c.TokenCache()
	if err != nil {
		return nil, fmt.Errorf("failed to get token cache for revocation use case: %w", err)
	}

	baseUseCase := authUseCase.NewRevocationUseCase(
		c.config,
		digester,
		revocationStore,
		revocationRepo,
		tokenCache,
		c.Logger(),
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for revocation use case: %w", err)
		}
		return authUseCase.NewRevocationUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}
